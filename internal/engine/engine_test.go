package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PegSim/internal/model"
	"PegSim/internal/shock"
)

func testParams() model.Params {
	return model.Params{
		TotalSteps:          100,
		InitialReserveRatio: 1.0,
		TargetReserveRatio:  1.0,
		MinimumReserveRatio: 0.5,
		Asset:               "BTC",
		InitialReserve:      100,
		InitialPrice:        8000,
		LowestAsk:           1.01,
		HighestBid:          0.99,
		TimeStep:            1.0 / 365,
		Process:             model.ProcessLogNormal,
		Termination:         model.TerminateFail,
	}
}

func TestStep_MintScenario(t *testing.T) {
	p := testParams()
	e := New(p, shock.NewSequence(shock.Shock{Demand: 0.05}))

	next, rec, err := e.Step(model.InitialSnapshot(p))
	require.NoError(t, err)

	assert.Equal(t, model.RegimeMint, rec.Regime)
	assert.InDelta(t, 40000.0, rec.CirculationDelta, 1e-9)
	assert.InDelta(t, 840000.0, next.StableCirculation, 1e-9)
	assert.InDelta(t, 5.05, rec.ReserveDelta, 1e-12)
	assert.InDelta(t, 105.05, next.ReserveQuantity, 1e-12)
	assert.Equal(t, 8000.0, next.ReservePrice)
	assert.Equal(t, 1, next.Step)
	assert.InDelta(t, next.ReserveQuantity*next.ReservePrice, next.ReserveValue, 1e-9)
	assert.InDelta(t, next.ReserveValue/next.StableCirculation, next.ReserveRatio, 1e-15)
}

func TestStep_BondIssueScenario(t *testing.T) {
	p := testParams()
	p.BondIssuance = true
	e := New(p, shock.NewSequence(shock.Shock{Demand: -0.05}))

	prev := model.InitialSnapshot(p)
	prev.ReserveRatio = 0.4

	next, rec, err := e.Step(prev)
	require.NoError(t, err)

	assert.Equal(t, model.RegimeBondIssue, rec.Regime)
	assert.InDelta(t, 760000.0, next.StableCirculation, 1e-9)
	assert.InDelta(t, 40000.0, next.BondCirculation, 1e-9)
	assert.Equal(t, prev.ReserveQuantity, next.ReserveQuantity)
	assert.Equal(t, 0.0, rec.ReserveDelta)
}

func TestStep_BuybackDebitsReserve(t *testing.T) {
	p := testParams()
	e := New(p, shock.NewSequence(shock.Shock{Demand: -0.05}))

	next, rec, err := e.Step(model.InitialSnapshot(p))
	require.NoError(t, err)

	assert.Equal(t, model.RegimeBuyback, rec.Regime)
	assert.InDelta(t, 760000.0, next.StableCirculation, 1e-9)
	assert.InDelta(t, -40000.0/8000/0.99, rec.ReserveDelta, 1e-12)
	assert.Less(t, next.ReserveQuantity, 100.0)
	assert.Equal(t, 0.0, next.BondCirculation)
}

func TestStep_MintRedeemsBondsFirst(t *testing.T) {
	p := testParams()
	p.BondIssuance = true

	tests := []struct {
		name        string
		bonds       float64
		wantBonds   float64
		wantReserve float64
	}{
		{"bonds exceed delta", 50000, 10000, 0},
		{"bonds below delta", 10000, 0, 30000.0 / 8000 * 1.01},
		{"no bonds", 0, 0, 40000.0 / 8000 * 1.01},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(p, shock.NewSequence(shock.Shock{Demand: 0.05}))
			prev := model.InitialSnapshot(p)
			prev.BondCirculation = tt.bonds

			next, rec, err := e.Step(prev)
			require.NoError(t, err)
			assert.Equal(t, model.RegimeMint, rec.Regime)
			assert.InDelta(t, tt.wantBonds, next.BondCirculation, 1e-9)
			assert.InDelta(t, tt.wantReserve, rec.ReserveDelta, 1e-12)
			assert.InDelta(t, 840000.0, next.StableCirculation, 1e-9)
		})
	}
}

func TestSelectRegime(t *testing.T) {
	tests := []struct {
		name  string
		bonds bool
		ratio float64
		delta float64
		want  model.Regime
	}{
		{"expansion", false, 1.0, 10, model.RegimeMint},
		{"zero delta is expansion", true, 0.1, 0, model.RegimeMint},
		{"contraction without bonds", false, 0.1, -10, model.RegimeBuyback},
		{"contraction above floor", true, 0.6, -10, model.RegimeBuyback},
		{"contraction at floor", true, 0.5, -10, model.RegimeBuyback},
		{"contraction below floor", true, 0.49, -10, model.RegimeBondIssue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			p.BondIssuance = tt.bonds
			prev := model.Snapshot{ReserveRatio: tt.ratio, StableCirculation: 100, ReservePrice: 1}
			assert.Equal(t, tt.want, SelectRegime(prev, tt.delta, p))
		})
	}
}

func TestStep_RegimeExclusivity(t *testing.T) {
	p := testParams()
	p.BondIssuance = true
	p.PriceVolatility = 0.05
	p.DemandVolatility = 0.05

	e := New(p, shock.New(p, 99, 1))
	prev := model.InitialSnapshot(p)
	for i := 0; i < 500; i++ {
		next, rec, err := e.Step(prev)
		require.NoError(t, err)

		switch rec.Regime {
		case model.RegimeMint:
			assert.GreaterOrEqual(t, rec.CirculationDelta, 0.0)
			assert.LessOrEqual(t, rec.BondDelta, 0.0)
		case model.RegimeBuyback:
			assert.Less(t, rec.CirculationDelta, 0.0)
			assert.Equal(t, 0.0, rec.BondDelta)
		case model.RegimeBondIssue:
			assert.Less(t, rec.CirculationDelta, 0.0)
			assert.Less(t, prev.ReserveRatio, p.MinimumReserveRatio)
			assert.Equal(t, 0.0, rec.ReserveDelta)
		default:
			t.Fatalf("unexpected regime %q", rec.Regime)
		}
		prev = next
	}
}

func TestStep_RebaseOnlyUpward(t *testing.T) {
	p := testParams()
	p.Rebase = true

	t.Run("over target grows supply", func(t *testing.T) {
		e := New(p, shock.NewSequence(shock.Shock{Price: 0.1}))
		next, rec, err := e.Step(model.InitialSnapshot(p))
		require.NoError(t, err)

		assert.Greater(t, rec.PreRebaseRatio, p.TargetReserveRatio)
		assert.Greater(t, rec.RebaseDelta, 0.0)
		assert.Greater(t, next.StableCirculation, 800000.0)
		assert.InDelta(t, next.ReserveValue/next.StableCirculation, next.ReserveRatio, 1e-15)
	})

	t.Run("under target leaves supply", func(t *testing.T) {
		e := New(p, shock.NewSequence(shock.Shock{Price: -0.1}))
		next, rec, err := e.Step(model.InitialSnapshot(p))
		require.NoError(t, err)

		assert.Less(t, rec.PreRebaseRatio, p.TargetReserveRatio)
		assert.Equal(t, 0.0, rec.RebaseDelta)
		assert.Equal(t, 800000.0, next.StableCirculation)
	})

	t.Run("disabled never rebases", func(t *testing.T) {
		p := testParams()
		e := New(p, shock.NewSequence(shock.Shock{Price: 0.1}))
		next, rec, err := e.Step(model.InitialSnapshot(p))
		require.NoError(t, err)
		assert.Equal(t, 0.0, rec.RebaseDelta)
		assert.Equal(t, 800000.0, next.StableCirculation)
	})
}

func TestStep_GBMAppliesAdditiveShocks(t *testing.T) {
	p := testParams()
	p.Process = model.ProcessGBM
	e := New(p, shock.NewSequence(shock.Shock{Price: 80, Demand: 1000}))

	next, rec, err := e.Step(model.InitialSnapshot(p))
	require.NoError(t, err)
	assert.Equal(t, 8080.0, next.ReservePrice)
	assert.Equal(t, 1000.0, rec.CirculationDelta)
	assert.Equal(t, 801000.0, next.StableCirculation)
	assert.Equal(t, 1000.0, next.CumulativeDemand)
}

func TestStep_DeterministicReplay(t *testing.T) {
	p := testParams()
	p.BondIssuance = true
	p.Rebase = true
	shocks := []shock.Shock{
		{Price: 0.02, Demand: 0.01},
		{Price: -0.3, Demand: -0.04},
		{Price: -0.2, Demand: -0.06},
		{Price: 0.5, Demand: 0.08},
	}

	run := func() []model.Snapshot {
		e := New(p, shock.NewSequence(shocks...))
		prev := model.InitialSnapshot(p)
		out := []model.Snapshot{prev}
		for i := 0; i < 40; i++ {
			next, _, err := e.Step(prev)
			require.NoError(t, err)
			out = append(out, next)
			prev = next
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func TestStep_ZeroShockIdempotence(t *testing.T) {
	p := testParams()
	e := New(p, shock.New(p, 5, 5))

	prev := model.InitialSnapshot(p)
	for i := 0; i < 50; i++ {
		next, rec, err := e.Step(prev)
		require.NoError(t, err)
		assert.Equal(t, p.InitialPrice, next.ReservePrice)
		assert.InDelta(t, p.InitialReserveRatio, next.ReserveRatio, 1e-12)
		assert.Equal(t, model.RegimeMint, rec.Regime)
		prev = next
	}
}

func TestStep_InvariantViolation(t *testing.T) {
	p := testParams()
	// A -100% demand shock retires all supply and debits more reserve than
	// exists at the bid markdown.
	e := New(p, shock.NewSequence(shock.Shock{Demand: -1}))

	_, _, err := e.Step(model.InitialSnapshot(p))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariantViolation))

	var ie *InvariantError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, 1, ie.Step)
	assert.Equal(t, "reserve_quantity", ie.Field)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		snap  model.Snapshot
		field string
	}{
		{"valid", model.Snapshot{ReservePrice: 1, StableCirculation: 1}, ""},
		{"zero is valid", model.Snapshot{}, ""},
		{"negative reserve", model.Snapshot{ReserveQuantity: -1}, "reserve_quantity"},
		{"negative supply", model.Snapshot{StableCirculation: -0.1}, "stable_circulation"},
		{"negative bonds", model.Snapshot{BondCirculation: -5}, "bond_circulation"},
		{"negative price", model.Snapshot{ReservePrice: -2}, "reserve_price"},
		{"nan price", model.Snapshot{ReservePrice: math.NaN()}, "reserve_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.snap)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ie *InvariantError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tt.field, ie.Field)
		})
	}
}
