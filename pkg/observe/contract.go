// Package observe provides fit-lifecycle observation for operator training:
// an in-memory duration measure the drawer can render as heat, and a
// Prometheus-backed observer for exporting fit metrics.
package observe

import "time"

// Observer receives fit-lifecycle events while an operator trains.
// Implementations must be safe for concurrent use; parallel branches of a
// pipeline report StepFitted from separate goroutines.
type Observer interface {
	FitStart(operator string)
	StepFitted(step, impl string, elapsed time.Duration)
	FitEnd(operator string, elapsed time.Duration)
}

// MultiObserver fans every event out to all wrapped observers.
type MultiObserver []Observer

func (m MultiObserver) FitStart(operator string) {
	for _, obs := range m {
		obs.FitStart(operator)
	}
}

func (m MultiObserver) StepFitted(step, impl string, elapsed time.Duration) {
	for _, obs := range m {
		obs.StepFitted(step, impl, elapsed)
	}
}

func (m MultiObserver) FitEnd(operator string, elapsed time.Duration) {
	for _, obs := range m {
		obs.FitEnd(operator, elapsed)
	}
}
