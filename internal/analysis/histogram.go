package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Bin is one histogram bucket covering [Lower, Upper).
type Bin struct {
	Lower float64
	Upper float64
	Count int
}

// Histogram buckets the finite values of xs into n equal-width bins that
// span the sample range.
func Histogram(xs []float64, n int) ([]Bin, error) {
	if n < 1 {
		n = 1
	}
	x, _ := finiteSorted(xs)
	if len(x) == 0 {
		return nil, ErrNoData
	}

	lo, hi := x[0], x[len(x)-1]
	if lo == hi {
		return []Bin{{Lower: lo, Upper: math.Nextafter(hi, math.Inf(1)), Count: len(x)}}, nil
	}

	dividers := floats.Span(make([]float64, n+1), lo, hi)
	// The last divider is exclusive, nudge it past the maximum.
	dividers[n] = math.Nextafter(hi, math.Inf(1))

	counts := stat.Histogram(nil, dividers, x, nil)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Lower: dividers[i], Upper: dividers[i+1], Count: int(counts[i])}
	}
	return bins, nil
}
