package analysis

import (
	"PegSim/internal/runner"
)

// Metric is a named terminal-state distribution.
type Metric struct {
	Name      string
	Summary   Summary
	Histogram []Bin
}

// ExperimentSummary is what rendering consumes for an experiment.
type ExperimentSummary struct {
	Trials   int
	Failed   int
	Depleted int
	Metrics  []Metric
}

// Terminal metric names.
const (
	MetricReserveRatio = "reserve_ratio"
	MetricSupplyDrift  = "supply_drift"
	MetricPriceDrift   = "price_drift"
)

// Columns splits outcomes into the terminal reserve ratio, relative supply
// drift and relative price drift samples.
func Columns(outcomes []runner.Outcome) (ratio, supply, price []float64) {
	ratio = make([]float64, len(outcomes))
	supply = make([]float64, len(outcomes))
	price = make([]float64, len(outcomes))
	for i, o := range outcomes {
		ratio[i] = o.Terminal.ReserveRatio
		supply[i] = o.SupplyDrift()
		price[i] = o.PriceDrift()
	}
	return ratio, supply, price
}

// Analyze summarises an experiment result. Metrics without finite samples
// are left out.
func Analyze(res *runner.ExperimentResult, bins int) ExperimentSummary {
	sum := ExperimentSummary{
		Trials: len(res.Outcomes) + len(res.Failures),
		Failed: len(res.Failures),
	}
	for _, o := range res.Outcomes {
		if o.Reason == runner.ReasonDepleted {
			sum.Depleted++
		}
	}

	ratio, supply, price := Columns(res.Outcomes)
	for _, col := range []struct {
		name   string
		values []float64
	}{
		{MetricReserveRatio, ratio},
		{MetricSupplyDrift, supply},
		{MetricPriceDrift, price},
	} {
		s, err := Summarize(col.values)
		if err != nil {
			continue
		}
		h, _ := Histogram(col.values, bins)
		sum.Metrics = append(sum.Metrics, Metric{Name: col.name, Summary: s, Histogram: h})
	}
	return sum
}
