// Package engine holds the per-step state transition of the peg contract:
// regime selection, pool bookkeeping, elastic rebase and invariant checks.
package engine

import (
	"PegSim/internal/model"
	"PegSim/internal/shock"
)

// StepRecord is the diagnostic record of one transition.
type StepRecord struct {
	Step             int          `json:"step"`
	Regime           model.Regime `json:"regime"`
	PriceShock       float64      `json:"price_shock"`
	DemandShock      float64      `json:"demand_shock"`
	CirculationDelta float64      `json:"circulation_delta"`
	StableDelta      float64      `json:"stable_delta"`
	ReserveDelta     float64      `json:"reserve_delta"`
	BondDelta        float64      `json:"bond_delta"`
	RebaseDelta      float64      `json:"rebase_delta"`
	PreRebaseRatio   float64      `json:"pre_rebase_ratio"`

	State model.Snapshot `json:"state"`
}

// Engine applies one regime transition per call. It owns no state of its
// own beyond the parameters and the shock source.
type Engine struct {
	params model.Params
	gen    shock.Generator
}

func New(p model.Params, gen shock.Generator) *Engine {
	return &Engine{params: p, gen: gen}
}

// Step derives the next snapshot from prev. The snapshot and record are
// returned even when the invariant check fails so callers can report them;
// the snapshot must not be appended in that case.
func (e *Engine) Step(prev model.Snapshot) (model.Snapshot, StepRecord, error) {
	p := e.params
	sh := e.gen.Next(prev)

	var price, circulationDelta float64
	if p.Process == model.ProcessGBM {
		price = prev.ReservePrice + sh.Price
		circulationDelta = sh.Demand
	} else {
		price = prev.ReservePrice + prev.ReservePrice*sh.Price
		// dSU = dD * SU
		circulationDelta = sh.Demand * prev.StableCirculation
	}

	regime := SelectRegime(prev, circulationDelta, p)
	d := Transition(regime, prev, circulationDelta, p)

	stable := prev.StableCirculation + d.Stable
	reserve := prev.ReserveQuantity + d.Reserve
	bonds := prev.BondCirculation + d.Bond
	value := reserve * price
	ratio := value / stable

	rec := StepRecord{
		Step:             prev.Step + 1,
		Regime:           regime,
		PriceShock:       sh.Price,
		DemandShock:      sh.Demand,
		CirculationDelta: circulationDelta,
		StableDelta:      d.Stable,
		ReserveDelta:     d.Reserve,
		BondDelta:        d.Bond,
		PreRebaseRatio:   ratio,
	}

	if p.Rebase {
		stable, ratio, rec.RebaseDelta = rebase(stable, value, ratio, p.TargetReserveRatio)
	}

	next := model.Snapshot{
		Step:              prev.Step + 1,
		ReservePrice:      price,
		CumulativeDemand:  prev.CumulativeDemand + sh.Demand,
		ReserveQuantity:   reserve,
		ReserveValue:      value,
		StableCirculation: stable,
		BondCirculation:   bonds,
		ReserveRatio:      ratio,
	}
	rec.State = next

	return next, rec, Validate(next)
}

// rebase distributes over-collateralization beyond target to holders by
// scaling the supply up. It never scales down.
func rebase(stable, value, ratio, target float64) (newStable, newRatio, delta float64) {
	off := (ratio - target) / ratio
	if !(off > 0) {
		return stable, ratio, 0
	}
	newStable = stable * (1 + off)
	return newStable, value / newStable, newStable - stable
}
