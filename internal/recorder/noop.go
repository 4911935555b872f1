package recorder

import (
	"PegSim/internal/model"
	"PegSim/internal/runner"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *Run) error                                 { return nil }
func (n *NoopRecorder) RecordSeries(_ string, _ int, _ []model.Snapshot) error { return nil }
func (n *NoopRecorder) RecordOutcomes(_ string, _ *runner.ExperimentResult) error {
	return nil
}
func (n *NoopRecorder) Close() error { return nil }
