package engine

import (
	"math"

	"PegSim/internal/model"
)

// Deltas are the signed changes a regime applies to the three pools.
type Deltas struct {
	Stable  float64
	Reserve float64
	Bond    float64
}

// SelectRegime picks the transition rule for a step. A zero circulation
// delta counts as expansion.
func SelectRegime(prev model.Snapshot, circulationDelta float64, p model.Params) model.Regime {
	if circulationDelta >= 0 {
		return model.RegimeMint
	}
	if p.BondIssuance && prev.ReserveRatio < p.MinimumReserveRatio {
		return model.RegimeBondIssue
	}
	return model.RegimeBuyback
}

// Transition computes the pool deltas of regime r. Reserve conversions are
// priced at the previous step's reserve price.
func Transition(r model.Regime, prev model.Snapshot, circulationDelta float64, p model.Params) Deltas {
	switch r {
	case model.RegimeMint:
		d := Deltas{Stable: circulationDelta}
		minted := circulationDelta
		if p.BondIssuance {
			// Outstanding bonds are redeemed before new reserve is credited.
			redeemed := math.Min(prev.BondCirculation, circulationDelta)
			d.Bond = -redeemed
			minted -= redeemed
		}
		d.Reserve = minted / prev.ReservePrice * p.LowestAsk
		return d

	case model.RegimeBondIssue:
		return Deltas{
			Stable: circulationDelta,
			Bond:   -circulationDelta,
		}

	default:
		// Buyback: the contract pays 1/highest_bid reserve credit per unit retired.
		return Deltas{
			Stable:  circulationDelta,
			Reserve: circulationDelta / prev.ReservePrice / p.HighestBid,
		}
	}
}
