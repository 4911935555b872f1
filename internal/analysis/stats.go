// Package analysis reduces experiment terminal states to distributions for
// rendering. It computes nothing the engine depends on.
package analysis

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoData is returned when no finite sample is available.
var ErrNoData = errors.New("no finite samples")

// Summary describes the distribution of one terminal metric.
type Summary struct {
	Count   int
	Dropped int // non-finite samples left out
	Mean    float64
	StdDev  float64
	Min     float64
	P05     float64
	Median  float64
	P95     float64
	Max     float64
}

// finiteSorted copies the finite values of xs in ascending order.
func finiteSorted(xs []float64) (sorted []float64, dropped int) {
	sorted = make([]float64, 0, len(xs))
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			dropped++
			continue
		}
		sorted = append(sorted, x)
	}
	sort.Float64s(sorted)
	return sorted, dropped
}

// Summarize computes moments and empirical quantiles of xs.
func Summarize(xs []float64) (Summary, error) {
	x, dropped := finiteSorted(xs)
	if len(x) == 0 {
		return Summary{Dropped: dropped}, ErrNoData
	}

	s := Summary{
		Count:   len(x),
		Dropped: dropped,
		Mean:    stat.Mean(x, nil),
		Min:     floats.Min(x),
		Max:     floats.Max(x),
		P05:     stat.Quantile(0.05, stat.Empirical, x, nil),
		Median:  stat.Quantile(0.5, stat.Empirical, x, nil),
		P95:     stat.Quantile(0.95, stat.Empirical, x, nil),
	}
	if len(x) > 1 {
		s.StdDev = stat.StdDev(x, nil)
	}
	return s, nil
}
