package config

import (
	"fmt"
	"sort"

	"PegSim/internal/model"
)

// Variant names.
const (
	VariantPeg            = "peg"
	VariantPegGBM         = "peg-gbm"
	VariantSeigniorage    = "seigniorage"
	VariantSeigniorageETH = "seigniorage-eth"
)

type preset struct {
	description string
	apply       func(c *Config)
}

var presets = map[string]preset{
	VariantPeg: {
		description: "dealer peg, log-normal shocks, elastic rebase",
		apply:       func(c *Config) {},
	},
	VariantPegGBM: {
		description: "dealer peg driven by geometric Brownian motion",
		apply: func(c *Config) {
			c.Simulation.Process = string(model.ProcessGBM)
		},
	},
	VariantSeigniorage: {
		description: "seigniorage shares: bonds below the minimum reserve ratio, BTC reserve",
		apply: func(c *Config) {
			c.Peg.BondIssuance = true
			c.Peg.Rebase = false
		},
	},
	VariantSeigniorageETH: {
		description: "seigniorage shares against an ETH reserve",
		apply: func(c *Config) {
			c.Peg.BondIssuance = true
			c.Peg.Rebase = false
			c.Reserve.Asset = "ETH"
			c.Reserve.InitialQuantity = 4000
			c.Reserve.InitialPrice = 200
			c.Reserve.Volatility = 0.002
		},
	},
}

// Variants lists the known variant names.
func Variants() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe returns the one-line description of a variant.
func Describe(variant string) string {
	return presets[variant].description
}

// Default returns the configuration of a variant before file and
// environment overrides.
func Default(variant string) (*Config, error) {
	p, ok := presets[variant]
	if !ok {
		return nil, fmt.Errorf("variant %q is unknown", variant)
	}

	cfg := &Config{Variant: variant}
	cfg.Simulation.TotalSteps = 100
	cfg.Simulation.TotalTrials = 1000
	cfg.Simulation.Process = string(model.ProcessLogNormal)
	cfg.Simulation.TimeStep = 1.0 / 365
	cfg.Simulation.Termination = string(model.TerminateFail)

	cfg.Reserve.Asset = "BTC"
	cfg.Reserve.InitialQuantity = 100
	cfg.Reserve.InitialPrice = 8000
	cfg.Reserve.Drift = 0
	cfg.Reserve.Volatility = 0.001

	cfg.Demand.Drift = 0.001
	cfg.Demand.Volatility = 0.0001

	cfg.Peg.InitialReserveRatio = 1.0
	cfg.Peg.TargetReserveRatio = 1.0
	cfg.Peg.MinimumReserveRatio = 0.5
	cfg.Peg.LowestAsk = 1.01
	cfg.Peg.HighestBid = 0.99
	cfg.Peg.Rebase = true

	cfg.Output.LogLevel = "info"
	cfg.Output.HistogramBins = 20

	cfg.Schedule.ExperimentCron = "0 0 * * * *"

	p.apply(cfg)
	return cfg, nil
}
