package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"PegSim/internal/analysis"
	"PegSim/internal/model"
	"PegSim/internal/recorder"
	"PegSim/internal/report"
	"PegSim/internal/runner"
)

// Batch describes the experiment run on every tick.
type Batch struct {
	Variant string
	Params  model.Params
	Workers int
	Bins    int
	// Seed of the first batch; each later batch uses the next seed.
	Seed uint64
}

// Scheduler manages scheduled experiment batches.
type Scheduler struct {
	Cron     *cron.Cron
	Recorder recorder.Recorder
	Logger   *log.Logger
	Ctx      context.Context
	Batch    Batch

	batches atomic.Uint64
	pending sync.WaitGroup
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, batch Batch, rec recorder.Recorder, logger *log.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		Recorder: rec,
		Logger:   logger,
		Ctx:      ctx,
		Batch:    batch,
	}
}

// Register adds the experiment task under the given cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.experimentTask); err != nil {
		return fmt.Errorf("register experiment task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Logger.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running batches, scheduled
// or started with RunInBackground, to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.pending.Wait()
	s.Logger.Info("scheduler stopped")
}

// Batches reports how many batches have been started.
func (s *Scheduler) Batches() uint64 { return s.batches.Load() }

// RunNow executes one batch immediately and returns its run id.
func (s *Scheduler) RunNow() (string, error) {
	return s.runBatch()
}

// RunInBackground starts one batch outside the cron schedule. Stop waits
// for it.
func (s *Scheduler) RunInBackground() {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.experimentTask()
	}()
}

func (s *Scheduler) experimentTask() {
	if _, err := s.runBatch(); err != nil {
		s.Logger.Error("scheduled experiment", "err", err)
	}
}

func (s *Scheduler) runBatch() (string, error) {
	n := s.batches.Add(1)
	seed := s.Batch.Seed + n - 1

	run := recorder.NewRun(recorder.KindExperiment, s.Batch.Variant, seed, s.Batch.Params)
	logger := s.Logger.With("run", run.ID, "seed", seed)
	logger.Info("running experiment batch", "trials", s.Batch.Params.TotalTrials)

	start := time.Now()
	res, err := runner.RunExperiment(s.Ctx, s.Batch.Params, runner.ExperimentOptions{
		Seed:    seed,
		Workers: s.Batch.Workers,
	})
	if err != nil {
		return "", fmt.Errorf("batch %d: %w", n, err)
	}
	if err := res.Err(); err != nil {
		logger.Warn("trials discarded", "err", err)
	}

	if err := s.Recorder.RecordRun(run); err != nil {
		logger.Error("record run", "err", err)
	} else if err := s.Recorder.RecordOutcomes(run.ID, res); err != nil {
		logger.Error("record outcomes", "err", err)
	}

	summary := analysis.Analyze(res, s.Batch.Bins)
	logger.Info("experiment batch finished", "elapsed", time.Since(start).Round(time.Millisecond))
	logger.Debug(report.FormatExperiment(summary))
	return run.ID, nil
}
