// Package runner drives the step engine through trials and experiments.
package runner

import (
	"context"
	"errors"
	"fmt"

	"PegSim/internal/engine"
	"PegSim/internal/model"
	"PegSim/internal/shock"
)

// Reason records why a trial stopped stepping.
type Reason string

const (
	ReasonCompleted Reason = "COMPLETED"
	ReasonDepleted  Reason = "DEPLETED"
	ReasonFailed    Reason = "FAILED"
)

// Trial owns the append-only state series of one trial. In terminal-only
// mode it keeps just the first and latest snapshots.
type Trial struct {
	ID        int
	Reason    Reason
	Violation *engine.InvariantError

	series       []model.Snapshot
	initial      model.Snapshot
	terminal     model.Snapshot
	terminalOnly bool
}

func newTrial(id int, initial model.Snapshot, terminalOnly bool, capacity int) *Trial {
	t := &Trial{ID: id, initial: initial, terminal: initial, terminalOnly: terminalOnly}
	if !terminalOnly {
		t.series = make([]model.Snapshot, 0, capacity)
		t.series = append(t.series, initial)
	}
	return t
}

func (t *Trial) append(s model.Snapshot) {
	t.terminal = s
	if !t.terminalOnly {
		t.series = append(t.series, s)
	}
}

// Series returns a copy of the recorded snapshots, step 0 first. It is
// empty for terminal-only trials.
func (t *Trial) Series() []model.Snapshot {
	return append([]model.Snapshot(nil), t.series...)
}

func (t *Trial) Initial() model.Snapshot  { return t.initial }
func (t *Trial) Terminal() model.Snapshot { return t.terminal }

// Steps is the number of transitions that were appended.
func (t *Trial) Steps() int { return t.terminal.Step }

// TrialOptions configures a single trial run.
type TrialOptions struct {
	ID           int
	TerminalOnly bool
	Observer     Observer
}

// RunTrial steps the engine from the initial state until TotalSteps is
// reached or an invariant breaks. Under TerminateStop a violation ends the
// trial with ReasonDepleted and a nil error; under TerminateFail it is
// returned as an error together with the valid prefix of the trial.
func RunTrial(ctx context.Context, p model.Params, gen shock.Generator, opts TrialOptions) (*Trial, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	eng := engine.New(p, gen)
	trial := newTrial(opts.ID, model.InitialSnapshot(p), opts.TerminalOnly, p.TotalSteps+1)

	for trial.Steps() < p.TotalSteps {
		if err := ctx.Err(); err != nil {
			return trial, err
		}

		next, rec, err := eng.Step(trial.terminal)
		if opts.Observer != nil {
			opts.Observer.OnStep(opts.ID, rec)
		}
		if err != nil {
			var ie *engine.InvariantError
			if !errors.As(err, &ie) {
				return trial, err
			}
			trial.Violation = ie
			if p.Termination == model.TerminateStop {
				trial.Reason = ReasonDepleted
				return trial, nil
			}
			trial.Reason = ReasonFailed
			return trial, fmt.Errorf("trial %d: %w", opts.ID, err)
		}
		trial.append(next)
	}

	trial.Reason = ReasonCompleted
	return trial, nil
}
