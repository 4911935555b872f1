// Package shock produces the per-step price and demand shocks that drive the
// peg simulation.
package shock

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"PegSim/internal/model"
)

// Shock is one draw of the reserve-asset price shock and the stable-unit
// demand shock. In log-normal mode both are relative changes; in GBM mode
// both are additive increments on the level.
type Shock struct {
	Price  float64
	Demand float64
}

// Generator yields exactly one shock per call. Implementations keep no
// memory of earlier calls beyond their random stream.
type Generator interface {
	Next(prev model.Snapshot) Shock
}

// New returns the generator matching p.Process, drawing from its own PCG
// stream seeded with (seed, stream).
func New(p model.Params, seed, stream uint64) Generator {
	src := rand.NewPCG(seed, stream)
	if p.Process == model.ProcessGBM {
		return NewGBM(p, src)
	}
	return NewLogNormal(p, src)
}

// LogNormal samples multiplicative shocks: lognormal(drift, volatility) - 1.
// Downside is bounded at -100% while upside is unbounded.
type LogNormal struct {
	price  distuv.LogNormal
	demand distuv.LogNormal
}

func NewLogNormal(p model.Params, src rand.Source) *LogNormal {
	return &LogNormal{
		price:  distuv.LogNormal{Mu: p.PriceDrift, Sigma: p.PriceVolatility, Src: src},
		demand: distuv.LogNormal{Mu: p.DemandDrift, Sigma: p.DemandVolatility, Src: src},
	}
}

func (g *LogNormal) Next(_ model.Snapshot) Shock {
	return Shock{
		Price:  g.price.Rand() - 1,
		Demand: g.demand.Rand() - 1,
	}
}

// GBM samples Brownian increments on the price level and on the stable
// circulation: level * (drift*dt + volatility*sqrt(dt)*z).
type GBM struct {
	p      model.Params
	sqrtDt float64
	normal distuv.Normal
}

func NewGBM(p model.Params, src rand.Source) *GBM {
	return &GBM{
		p:      p,
		sqrtDt: math.Sqrt(p.TimeStep),
		normal: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}
}

func (g *GBM) Next(prev model.Snapshot) Shock {
	dt := g.p.TimeStep
	price := prev.ReservePrice * (g.p.PriceDrift*dt + g.p.PriceVolatility*g.sqrtDt*g.normal.Rand())
	demand := prev.StableCirculation * (g.p.DemandDrift*dt + g.p.DemandVolatility*g.sqrtDt*g.normal.Rand())
	return Shock{Price: price, Demand: demand}
}

// Sequence replays canned shocks in order, cycling when exhausted.
// An empty Sequence yields zero shocks.
type Sequence struct {
	shocks []Shock
	next   int
}

func NewSequence(shocks ...Shock) *Sequence {
	return &Sequence{shocks: append([]Shock(nil), shocks...)}
}

func (s *Sequence) Next(_ model.Snapshot) Shock {
	if len(s.shocks) == 0 {
		return Shock{}
	}
	sh := s.shocks[s.next%len(s.shocks)]
	s.next++
	return sh
}
