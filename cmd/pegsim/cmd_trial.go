package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"PegSim/internal/logging"
	"PegSim/internal/recorder"
	"PegSim/internal/report"
	"PegSim/internal/runner"
)

func newTrialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trial",
		Short: "Run a single trial and print its terminal state",
		Long: `Run one trial of the configured variant.

The trial uses the same random stream as trial 0 of an experiment with the
same seed. With --csv the full state series is written out.`,
		RunE: runTrial,
	}
	cmd.Flags().String("csv", "", "Write the state series to this CSV file")
	cmd.Flags().Bool("print-steps", false, "Log every step at info level")
	return cmd
}

func runTrial(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	cfg := a.cfg
	p := cfg.Params()
	seed := cfg.Simulation.Seed

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	trace, err := a.openTrace()
	if err != nil {
		return fmt.Errorf("open trace: %w", err)
	}
	defer trace.Close()

	rec := a.openRecorder()
	defer rec.Close()

	observers := runner.Observers{
		&logging.StepLogger{Logger: a.logger, TotalSteps: p.TotalSteps, Verbose: cfg.Output.PrintSteps},
		trace,
	}

	a.logger.Info("running trial", "variant", cfg.Variant, "seed", seed, "steps", p.TotalSteps)
	trial, runErr := runner.RunTrial(ctx, p, newGenerator(p, seed, 0), runner.TrialOptions{Observer: observers})
	if trial == nil {
		return runErr
	}

	run := recorder.NewRun(recorder.KindTrial, cfg.Variant, seed, p)
	if err := rec.RecordRun(run); err != nil {
		a.logger.Error("record run", "err", err)
	} else if err := rec.RecordSeries(run.ID, trial.ID, trial.Series()); err != nil {
		a.logger.Error("record series", "err", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, report.FormatTrialSummary(p.Asset, trial.Terminal()))
	if trial.Violation != nil {
		fmt.Fprintf(out, "Stopped: %v\n", trial.Violation)
	}
	fmt.Fprintf(out, "Run: %s\n", run.ID)

	if cfg.Output.CSVPath != "" {
		if err := writeCSV(cfg.Output.CSVPath, func(f *os.File) error {
			return report.WriteSeriesCSV(f, trial.Series())
		}); err != nil {
			return errors.Join(runErr, err)
		}
		a.logger.Info("series written", "path", cfg.Output.CSVPath)
	}
	return runErr
}

func writeCSV(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}
