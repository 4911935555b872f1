package runner

import "PegSim/internal/engine"

// Observer receives the diagnostic record of every step. Observers shared
// by an experiment are called from several workers and must be safe for
// concurrent use.
type Observer interface {
	OnStep(trial int, rec engine.StepRecord)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(trial int, rec engine.StepRecord)

func (f ObserverFunc) OnStep(trial int, rec engine.StepRecord) { f(trial, rec) }

// Observers fans a record out to each non-nil observer in order.
type Observers []Observer

func (os Observers) OnStep(trial int, rec engine.StepRecord) {
	for _, o := range os {
		if o != nil {
			o.OnStep(trial, rec)
		}
	}
}
