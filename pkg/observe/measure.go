package observe

import (
	"sync"
	"time"
)

// StepStats accumulates fit durations for one step.
type StepStats struct {
	Impl  string
	Total time.Duration
	Count int64
}

// AVGDuration returns the average fit duration of the step.
func (s *StepStats) AVGDuration() time.Duration {
	if s.Count == 0 {
		return 0
	}

	return round(time.Duration(float64(s.Total) / float64(s.Count)))
}

// Measure records per-step fit durations in memory. It implements Observer
// and is the heat source of the drawer.
type Measure struct {
	mu       sync.Mutex
	steps    map[string]*StepStats
	totalFit time.Duration
}

func NewMeasure() *Measure {
	return &Measure{steps: make(map[string]*StepStats)}
}

func (m *Measure) FitStart(string) {}

func (m *Measure) StepFitted(step, impl string, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.steps[step] == nil {
		m.steps[step] = &StepStats{Impl: impl}
	}
	m.steps[step].Total += elapsed
	m.steps[step].Count++
}

func (m *Measure) FitEnd(_ string, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalFit += elapsed
}

// Step returns the accumulated stats of a step, or nil.
func (m *Measure) Step(name string) *StepStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.steps[name]
}

// AllSteps returns a copy of all per-step stats.
func (m *Measure) AllSteps() map[string]*StepStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]*StepStats, len(m.steps))
	for name, stats := range m.steps {
		copied := *stats
		out[name] = &copied
	}

	return out
}

// TotalFitDuration returns the summed wall time of all observed fits.
func (m *Measure) TotalFitDuration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.totalFit
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Second:
		d = d.Round(time.Second)
	case d > time.Millisecond:
		d = d.Round(time.Millisecond)
	case d > time.Microsecond:
		d = d.Round(time.Microsecond)
	}

	return d
}

var _ Observer = (*Measure)(nil)
