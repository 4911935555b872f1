package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"PegSim/internal/analysis"
	"PegSim/internal/logging"
	"PegSim/internal/recorder"
	"PegSim/internal/report"
	"PegSim/internal/runner"
)

func newExperimentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Run many independent trials and summarize their terminal states",
		RunE:  runExperiment,
	}
	cmd.Flags().Int("trials", 0, "Number of trials")
	cmd.Flags().Int("workers", 0, "Parallel workers (0 uses GOMAXPROCS)")
	cmd.Flags().String("csv", "", "Write one row per trial to this CSV file")
	cmd.Flags().Bool("print-steps", false, "Log every step of every trial")
	return cmd
}

func runExperiment(cmd *cobra.Command, args []string) error {
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

	// Per-step logging of every trial is opt-in.
	observers := runner.Observers{trace}
	if cfg.Output.PrintSteps {
		observers = append(observers, &logging.StepLogger{Logger: a.logger, TotalSteps: p.TotalSteps, Verbose: true})
	}

	a.logger.Info("running experiment", "variant", cfg.Variant, "seed", seed, "trials", p.TotalTrials, "steps", p.TotalSteps)
	start := time.Now()
	res, err := runner.RunExperiment(ctx, p, runner.ExperimentOptions{
		Seed:         seed,
		Workers:      cfg.Simulation.Workers,
		Observer:     observers,
		NewGenerator: newGenerator,
	})
	if err != nil {
		return err
	}
	a.logger.Info("experiment finished", "elapsed", time.Since(start).Round(time.Millisecond))
	if err := res.Err(); err != nil {
		a.logger.Warn("trials discarded", "err", err)
	}
	if len(res.Outcomes) == 0 {
		return res.Err()
	}

	run := recorder.NewRun(recorder.KindExperiment, cfg.Variant, seed, p)
	if err := rec.RecordRun(run); err != nil {
		a.logger.Error("record run", "err", err)
	} else if err := rec.RecordOutcomes(run.ID, res); err != nil {
		a.logger.Error("record outcomes", "err", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, report.FormatExperiment(analysis.Analyze(res, cfg.Output.HistogramBins)))
	fmt.Fprintf(out, "\nRun: %s\n", run.ID)

	if cfg.Output.CSVPath != "" {
		if err := writeCSV(cfg.Output.CSVPath, func(f *os.File) error {
			return report.WriteOutcomesCSV(f, res.Outcomes)
		}); err != nil {
			return err
		}
		a.logger.Info("outcomes written", "path", cfg.Output.CSVPath)
	}
	return nil
}
