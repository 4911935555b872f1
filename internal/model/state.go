package model

// Snapshot is the contract state at one step. Snapshots are values: once
// appended to a trial series they are never changed.
type Snapshot struct {
	Step              int     `json:"step"`
	ReservePrice      float64 `json:"reserve_price"`
	CumulativeDemand  float64 `json:"cumulative_demand"`
	ReserveQuantity   float64 `json:"reserve_quantity"`
	ReserveValue      float64 `json:"reserve_value"`
	StableCirculation float64 `json:"stable_circulation"`
	BondCirculation   float64 `json:"bond_circulation"`
	ReserveRatio      float64 `json:"reserve_ratio"`
}

// InitialSnapshot builds step 0 from the run parameters.
func InitialSnapshot(p Params) Snapshot {
	value := p.InitialReserve * p.InitialPrice
	return Snapshot{
		Step:              0,
		ReservePrice:      p.InitialPrice,
		ReserveQuantity:   p.InitialReserve,
		ReserveValue:      value,
		StableCirculation: p.InitialCirculation(),
		ReserveRatio:      p.InitialReserveRatio,
	}
}

// Regime is the transition rule applied for a single step.
type Regime string

const (
	RegimeMint      Regime = "MINT"
	RegimeBuyback   Regime = "BUYBACK"
	RegimeBondIssue Regime = "BOND_ISSUE"
)

// RelativeDrift returns (final - initial) / initial.
func RelativeDrift(initial, final float64) float64 {
	return (final - initial) / initial
}
