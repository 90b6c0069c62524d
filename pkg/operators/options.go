package operators

import "github.com/braidml/braid/pkg/observe"

type fitConfig struct {
	observer    observe.Observer
	parallelism int
}

func newFitConfig(opts []FitOption) fitConfig {
	cfg := fitConfig{parallelism: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.parallelism < 1 {
		cfg.parallelism = 1
	}

	return cfg
}

// FitOption configures a single Fit call.
type FitOption func(cfg *fitConfig)

// WithObserver attaches a fit-lifecycle observer to the fit.
func WithObserver(obs observe.Observer) FitOption {
	return func(cfg *fitConfig) {
		cfg.observer = obs
	}
}

// WithParallelism bounds how many independent pipeline branches fit
// concurrently. The default is 1.
func WithParallelism(parallelism int) FitOption {
	return func(cfg *fitConfig) {
		cfg.parallelism = parallelism
	}
}
