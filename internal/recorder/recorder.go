package recorder

import (
	"time"

	"github.com/google/uuid"

	"PegSim/internal/model"
	"PegSim/internal/runner"
)

// Run kinds.
const (
	KindTrial      = "TRIAL"
	KindExperiment = "EXPERIMENT"
)

// Run identifies one invocation of the simulator.
type Run struct {
	ID        string
	Kind      string
	Variant   string
	Seed      uint64
	Params    model.Params
	StartedAt time.Time
}

// NewRun stamps a run with a fresh id and the current time.
func NewRun(kind, variant string, seed uint64, p model.Params) *Run {
	return &Run{
		ID:        uuid.NewString(),
		Kind:      kind,
		Variant:   variant,
		Seed:      seed,
		Params:    p,
		StartedAt: time.Now(),
	}
}

// Recorder persists simulation output for later analysis.
type Recorder interface {
	RecordRun(run *Run) error
	RecordSeries(runID string, trial int, series []model.Snapshot) error
	RecordOutcomes(runID string, res *runner.ExperimentResult) error
	Close() error
}
