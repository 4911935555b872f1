package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"PegSim/internal/engine"
	"PegSim/internal/model"
	"PegSim/internal/shock"
)

// ErrTrialsFailed reports that at least one trial hit a fatal violation.
var ErrTrialsFailed = errors.New("trials failed")

// Outcome is the terminal summary of one trial.
type Outcome struct {
	Trial     int
	Steps     int
	Reason    Reason
	Initial   model.Snapshot
	Terminal  model.Snapshot
	Violation *engine.InvariantError
}

// SupplyDrift is the relative change of the stable circulation.
func (o Outcome) SupplyDrift() float64 {
	return model.RelativeDrift(o.Initial.StableCirculation, o.Terminal.StableCirculation)
}

// PriceDrift is the relative change of the reserve price.
func (o Outcome) PriceDrift() float64 {
	return model.RelativeDrift(o.Initial.ReservePrice, o.Terminal.ReservePrice)
}

// TrialFailure is a trial discarded because of a fatal error.
type TrialFailure struct {
	Trial int
	Err   error
}

// ExperimentResult holds outcomes in trial order. Failed trials appear only
// in Failures.
type ExperimentResult struct {
	Outcomes []Outcome
	Failures []TrialFailure
}

// Err summarises failures, or returns nil when every trial finished.
func (r *ExperimentResult) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	total := len(r.Failures) + len(r.Outcomes)
	return fmt.Errorf("%w: %d of %d, first: %w", ErrTrialsFailed, len(r.Failures), total, r.Failures[0].Err)
}

// GeneratorFunc builds the shock source of one trial.
type GeneratorFunc func(p model.Params, seed, stream uint64) shock.Generator

// ExperimentOptions configures RunExperiment.
type ExperimentOptions struct {
	Seed     uint64
	Workers  int // defaults to GOMAXPROCS
	Observer Observer
	// NewGenerator defaults to shock.New. Every trial gets its own stream.
	NewGenerator GeneratorFunc
}

// RunExperiment runs p.TotalTrials independent trials and collects their
// terminal states. Trial i draws from stream i of opts.Seed, so results do
// not depend on worker count or scheduling.
func RunExperiment(ctx context.Context, p model.Params, opts ExperimentOptions) (*ExperimentResult, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.TotalTrials <= 0 {
		return nil, &model.ConfigError{Field: "total_trials", Reason: "must be positive"}
	}

	newGen := opts.NewGenerator
	if newGen == nil {
		newGen = shock.New
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	type slot struct {
		outcome Outcome
		err     error
	}
	slots := make([]slot, p.TotalTrials)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < p.TotalTrials; i++ {
		g.Go(func() error {
			gen := newGen(p, opts.Seed, uint64(i))
			trial, err := RunTrial(gctx, p, gen, TrialOptions{ID: i, TerminalOnly: true, Observer: opts.Observer})
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				slots[i].err = err
				return nil
			}
			slots[i].outcome = Outcome{
				Trial:     i,
				Steps:     trial.Steps(),
				Reason:    trial.Reason,
				Initial:   trial.Initial(),
				Terminal:  trial.Terminal(),
				Violation: trial.Violation,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("experiment: %w", err)
	}

	res := &ExperimentResult{Outcomes: make([]Outcome, 0, p.TotalTrials)}
	for i, s := range slots {
		if s.err != nil {
			res.Failures = append(res.Failures, TrialFailure{Trial: i, Err: s.err})
			continue
		}
		res.Outcomes = append(res.Outcomes, s.outcome)
	}
	return res, nil
}
