package main

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"PegSim/internal/config"
	"PegSim/internal/logging"
	"PegSim/internal/recorder"
	"PegSim/internal/runner"
	"PegSim/internal/shock"
)

// newGenerator builds the shock source of every trial the commands run.
var newGenerator runner.GeneratorFunc = shock.New

// app is the state shared by the simulation commands.
type app struct {
	cfg    *config.Config
	logger *log.Logger
}

// loadApp loads the config, applies flag overrides, validates the result
// and builds the logger.
func loadApp(cmd *cobra.Command) (*app, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	variant, _ := flags.GetString("variant")

	cfg, err := config.LoadVariant(path, variant)
	if err != nil {
		return nil, err
	}

	if flags.Changed("log-level") {
		cfg.Output.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("steps") {
		cfg.Simulation.TotalSteps, _ = flags.GetInt("steps")
	}
	if flags.Changed("seed") {
		cfg.Simulation.Seed, _ = flags.GetUint64("seed")
	}
	if flags.Changed("termination") {
		cfg.Simulation.Termination, _ = flags.GetString("termination")
	}
	if flags.Changed("sqlite-path") {
		cfg.Output.SQLitePath, _ = flags.GetString("sqlite-path")
	}
	if flags.Changed("trace") {
		cfg.Output.TraceFile, _ = flags.GetString("trace")
	}
	if f := flags.Lookup("trials"); f != nil && f.Changed {
		cfg.Simulation.TotalTrials, _ = flags.GetInt("trials")
	}
	if f := flags.Lookup("workers"); f != nil && f.Changed {
		cfg.Simulation.Workers, _ = flags.GetInt("workers")
	}
	if f := flags.Lookup("csv"); f != nil && f.Changed {
		cfg.Output.CSVPath, _ = flags.GetString("csv")
	}
	if f := flags.Lookup("cron"); f != nil && f.Changed {
		cfg.Schedule.ExperimentCron, _ = flags.GetString("cron")
	}
	if f := flags.Lookup("print-steps"); f != nil && f.Changed {
		cfg.Output.PrintSteps, _ = flags.GetBool("print-steps")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(cfg.Output.LogLevel, cmd.ErrOrStderr())
	if cfg.Simulation.Seed == 0 {
		cfg.Simulation.Seed = uint64(time.Now().UnixNano())
		logger.Info("picked seed", "seed", cfg.Simulation.Seed)
	}
	logger.Debug("config loaded", "path", path, "variant", cfg.Variant)
	return &app{cfg: cfg, logger: logger}, nil
}

// openRecorder returns the SQLite recorder, or a noop recorder when no path
// is configured or the database cannot be opened.
func (a *app) openRecorder() recorder.Recorder {
	if a.cfg.Output.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(a.cfg.Output.SQLitePath, a.logger)
	if err != nil {
		a.logger.Warn("init sqlite recorder failed, using noop", "err", err)
		return recorder.NewNoopRecorder()
	}
	return sr
}

// openTrace returns nil when tracing is off.
func (a *app) openTrace() (*logging.TraceWriter, error) {
	if a.cfg.Output.TraceFile == "" {
		return nil, nil
	}
	return logging.NewTraceWriter(a.cfg.Output.TraceFile)
}
