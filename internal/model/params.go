package model

import (
	"errors"
	"fmt"
	"math"
)

// Process selects the stochastic process that drives price and demand shocks.
type Process string

const (
	ProcessLogNormal Process = "lognormal"
	ProcessGBM       Process = "gbm"
)

// TerminationPolicy decides what a trial does when a step breaks an invariant.
type TerminationPolicy string

const (
	// TerminateFail aborts the trial and surfaces the violation as an error.
	TerminateFail TerminationPolicy = "fail"
	// TerminateStop ends the trial gracefully, keeping every valid step.
	TerminateStop TerminationPolicy = "stop"
)

// ErrInvalidConfig is matched by every *ConfigError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError reports a parameter that makes a run impossible to start.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }

// Params holds the immutable hyper parameters of a simulation run.
type Params struct {
	TotalSteps  int
	TotalTrials int

	InitialReserveRatio float64
	TargetReserveRatio  float64
	MinimumReserveRatio float64

	Asset           string
	InitialReserve  float64 // units of the reserve asset
	InitialPrice    float64 // unit of account per reserve unit
	PriceDrift      float64
	PriceVolatility float64

	DemandDrift      float64
	DemandVolatility float64

	// TimeStep is the GBM increment size; ignored by the log-normal process.
	TimeStep float64

	LowestAsk  float64 // >= 1
	HighestBid float64 // <= 1

	BondIssuance bool
	Rebase       bool

	Process     Process
	Termination TerminationPolicy
}

// InitialCirculation back-derives the initial stable supply from the
// initial collateralization target.
func (p Params) InitialCirculation() float64 {
	return p.InitialReserve * p.InitialPrice / p.InitialReserveRatio
}

// Validate rejects parameters no trial can start from. Zero volatility is legal.
func (p Params) Validate() error {
	switch {
	case p.TotalSteps <= 0:
		return &ConfigError{Field: "total_steps", Reason: "must be positive"}
	case !(p.InitialPrice > 0):
		return &ConfigError{Field: "initial_price", Reason: "must be positive"}
	case !(p.InitialReserve > 0):
		return &ConfigError{Field: "initial_reserve", Reason: "must be positive"}
	case !(p.InitialReserveRatio > 0):
		return &ConfigError{Field: "initial_reserve_ratio", Reason: "must be positive"}
	case !(p.InitialCirculation() > 0):
		return &ConfigError{Field: "initial_circulation", Reason: "must be positive"}
	case !(p.TargetReserveRatio > 0) || math.IsInf(p.TargetReserveRatio, 1):
		return &ConfigError{Field: "target_reserve_ratio", Reason: "must be positive and finite"}
	case !(p.MinimumReserveRatio >= 0) || math.IsInf(p.MinimumReserveRatio, 1):
		return &ConfigError{Field: "minimum_reserve_ratio", Reason: "must be non-negative and finite"}
	case !(p.LowestAsk >= 1) || math.IsInf(p.LowestAsk, 1):
		return &ConfigError{Field: "lowest_ask", Reason: "must be finite and >= 1"}
	case !(p.HighestBid > 0) || p.HighestBid > 1:
		return &ConfigError{Field: "highest_bid", Reason: "must be in (0, 1]"}
	}

	switch p.Process {
	case ProcessLogNormal:
	case ProcessGBM:
		if !(p.TimeStep > 0) {
			return &ConfigError{Field: "time_step", Reason: "must be positive for gbm"}
		}
	default:
		return &ConfigError{Field: "process", Reason: fmt.Sprintf("unknown value %q", p.Process)}
	}

	switch p.Termination {
	case TerminateFail, TerminateStop:
	default:
		return &ConfigError{Field: "termination", Reason: fmt.Sprintf("unknown value %q", p.Termination)}
	}
	return nil
}
