package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"PegSim/internal/scheduler"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run experiment batches on a cron schedule until interrupted",
		Long: `Run an experiment batch on every tick of schedule.experiment_cron
(six fields, seconds first). Each batch uses the next seed and is recorded
to SQLite. Set RUN_ON_START=true to run a batch immediately.`,
		RunE: runSchedule,
	}
	cmd.Flags().Int("trials", 0, "Number of trials per batch")
	cmd.Flags().Int("workers", 0, "Parallel workers (0 uses GOMAXPROCS)")
	cmd.Flags().String("cron", "", "Cron spec overriding schedule.experiment_cron")
	return cmd
}

func runSchedule(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd)
	if err != nil {
		return err
	}
	cfg := a.cfg
	if cfg.Schedule.ExperimentCron == "" {
		return fmt.Errorf("schedule.experiment_cron is empty")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rec := a.openRecorder()
	defer rec.Close()

	sched := scheduler.NewScheduler(ctx, scheduler.Batch{
		Variant: cfg.Variant,
		Params:  cfg.Params(),
		Workers: cfg.Simulation.Workers,
		Bins:    cfg.Output.HistogramBins,
		Seed:    cfg.Simulation.Seed,
	}, rec, a.logger)
	if err := sched.Register(cfg.Schedule.ExperimentCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Schedule.RunOnStart || os.Getenv("RUN_ON_START") == "true" {
		a.logger.Info("RUN_ON_START enabled, executing batch now")
		sched.RunInBackground()
	}

	a.logger.Info("pegsim scheduler is running, press Ctrl+C to stop", "cron", cfg.Schedule.ExperimentCron)
	<-ctx.Done()
	a.logger.Info("shutdown signal received, stopping", "batches", sched.Batches())
	return nil
}
