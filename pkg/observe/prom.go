package observe

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// PromObserver exports fit metrics through a Prometheus registry: a counter
// of fits per operator and a histogram of step fit durations by impl type.
type PromObserver struct {
	registry    *prometheus.Registry
	fitTotal    *prometheus.CounterVec
	stepSeconds *prometheus.HistogramVec
}

// NewPromObserver registers the fit metrics on the given registry. A nil
// registry gets replaced with a fresh one.
func NewPromObserver(registry *prometheus.Registry) *PromObserver {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	obs := &PromObserver{
		registry: registry,
		fitTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "braid_fit_total",
				Help: "Total number of operator fits started",
			},
			[]string{"operator"},
		),
		stepSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "braid_step_fit_duration_seconds",
				Help:    "Fit duration of individual pipeline steps",
				Buckets: prometheus.ExponentialBuckets(0.0001, 10, 8),
			},
			[]string{"step", "impl"},
		),
	}

	registry.MustRegister(obs.fitTotal)
	registry.MustRegister(obs.stepSeconds)

	return obs
}

// Registry returns the backing registry, e.g. for promhttp.HandlerFor.
func (o *PromObserver) Registry() *prometheus.Registry { return o.registry }

func (o *PromObserver) FitStart(operator string) {
	o.fitTotal.WithLabelValues(operator).Inc()
}

func (o *PromObserver) StepFitted(step, impl string, elapsed time.Duration) {
	o.stepSeconds.WithLabelValues(step, impl).Observe(elapsed.Seconds())
}

func (o *PromObserver) FitEnd(string, time.Duration) {}

// WriteSnapshot encodes the current registry state in the Prometheus text
// exposition format.
func (o *PromObserver) WriteSnapshot(wrt io.Writer) error {
	families, err := o.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "unable to gather metrics")
	}

	encoder := expfmt.NewEncoder(wrt, expfmt.FmtText)
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			return errors.Wrapf(err, "unable to encode metric %s", family.GetName())
		}
	}

	return nil
}

var _ Observer = (*PromObserver)(nil)
