package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"PegSim/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Variant    string `yaml:"variant"`
	Simulation struct {
		TotalSteps  int     `yaml:"total_steps"`
		TotalTrials int     `yaml:"total_trials"`
		Process     string  `yaml:"process"`
		TimeStep    float64 `yaml:"time_step"`
		Termination string  `yaml:"termination"`
		Seed        uint64  `yaml:"seed"` // 0 picks a seed at start-up
		Workers     int     `yaml:"workers"`
	} `yaml:"simulation"`
	Reserve struct {
		Asset           string  `yaml:"asset"`
		InitialQuantity float64 `yaml:"initial_quantity"`
		InitialPrice    float64 `yaml:"initial_price"`
		Drift           float64 `yaml:"drift"`
		Volatility      float64 `yaml:"volatility"`
	} `yaml:"reserve"`
	Demand struct {
		Drift      float64 `yaml:"drift"`
		Volatility float64 `yaml:"volatility"`
	} `yaml:"demand"`
	Peg struct {
		InitialReserveRatio float64 `yaml:"initial_reserve_ratio"`
		TargetReserveRatio  float64 `yaml:"target_reserve_ratio"`
		MinimumReserveRatio float64 `yaml:"minimum_reserve_ratio"`
		LowestAsk           float64 `yaml:"lowest_ask"`
		HighestBid          float64 `yaml:"highest_bid"`
		BondIssuance        bool    `yaml:"bond_issuance"`
		Rebase              bool    `yaml:"rebase"`
	} `yaml:"peg"`
	Output struct {
		LogLevel      string `yaml:"log_level"`
		PrintSteps    bool   `yaml:"print_steps"`
		TraceFile     string `yaml:"trace_file"`
		SQLitePath    string `yaml:"sqlite_path"`
		CSVPath       string `yaml:"csv_path"`
		HistogramBins int    `yaml:"histogram_bins"`
	} `yaml:"output"`
	Schedule struct {
		ExperimentCron string `yaml:"experiment_cron"`
		RunOnStart     bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`
}

// Load builds the config from the variant preset, then the YAML file at
// path, then environment variable overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	return LoadVariant(path, "")
}

// LoadVariant is Load with the variant forced to variant when it is not
// empty, ahead of the file and PEGSIM_VARIANT.
func LoadVariant(path, variant string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var head struct {
		Variant string `yaml:"variant"`
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &head); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if v := os.Getenv("PEGSIM_VARIANT"); v != "" {
		head.Variant = v
	}
	if variant != "" {
		head.Variant = variant
	}
	if head.Variant == "" {
		head.Variant = VariantPeg
	}

	cfg, err := Default(head.Variant)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.Variant = head.Variant

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PEGSIM_TOTAL_STEPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PEGSIM_TOTAL_STEPS: %w", err)
		}
		c.Simulation.TotalSteps = n
	}
	if v := os.Getenv("PEGSIM_TOTAL_TRIALS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PEGSIM_TOTAL_TRIALS: %w", err)
		}
		c.Simulation.TotalTrials = n
	}
	if v := os.Getenv("PEGSIM_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("PEGSIM_SEED: %w", err)
		}
		c.Simulation.Seed = n
	}
	if v := os.Getenv("PEGSIM_SQLITE_PATH"); v != "" {
		c.Output.SQLitePath = v
	}
	if v := os.Getenv("PEGSIM_LOG_LEVEL"); v != "" {
		c.Output.LogLevel = v
	}
	if v := os.Getenv("PEGSIM_EXPERIMENT_CRON"); v != "" {
		c.Schedule.ExperimentCron = v
	}
	return nil
}

// Params converts the config into the engine's immutable parameters.
func (c *Config) Params() model.Params {
	return model.Params{
		TotalSteps:          c.Simulation.TotalSteps,
		TotalTrials:         c.Simulation.TotalTrials,
		InitialReserveRatio: c.Peg.InitialReserveRatio,
		TargetReserveRatio:  c.Peg.TargetReserveRatio,
		MinimumReserveRatio: c.Peg.MinimumReserveRatio,
		Asset:               c.Reserve.Asset,
		InitialReserve:      c.Reserve.InitialQuantity,
		InitialPrice:        c.Reserve.InitialPrice,
		PriceDrift:          c.Reserve.Drift,
		PriceVolatility:     c.Reserve.Volatility,
		DemandDrift:         c.Demand.Drift,
		DemandVolatility:    c.Demand.Volatility,
		TimeStep:            c.Simulation.TimeStep,
		LowestAsk:           c.Peg.LowestAsk,
		HighestBid:          c.Peg.HighestBid,
		BondIssuance:        c.Peg.BondIssuance,
		Rebase:              c.Peg.Rebase,
		Process:             model.Process(c.Simulation.Process),
		Termination:         model.TerminationPolicy(c.Simulation.Termination),
	}
}

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks application settings, then the simulation parameters.
func (c *Config) Validate() error {
	if _, ok := presets[c.Variant]; !ok {
		return fmt.Errorf("variant %q is unknown", c.Variant)
	}
	if c.Simulation.TotalTrials <= 0 {
		return fmt.Errorf("simulation.total_trials must be positive")
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("simulation.workers must not be negative")
	}
	if c.Output.HistogramBins <= 0 {
		return fmt.Errorf("output.histogram_bins must be positive")
	}
	if c.Schedule.ExperimentCron != "" {
		if _, err := cronParser.Parse(c.Schedule.ExperimentCron); err != nil {
			return fmt.Errorf("schedule.experiment_cron: %w", err)
		}
	}
	return c.Params().Validate()
}
