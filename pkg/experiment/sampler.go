package experiment

import (
	"os"
	"sync"

	"github.com/shirou/gopsutil/v3/process"
)

// Sampler reads resource usage of the current process. The peak RSS is kept
// across samples so that short-lived spikes between trials are retained.
type Sampler struct {
	mu      sync.Mutex
	proc    *process.Process
	peakRSS uint64
}

func NewSampler() *Sampler {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		proc = nil
	}

	return &Sampler{proc: proc}
}

// Sample returns the peak resident set size seen so far and the current CPU
// usage percentage. Both are zero when process introspection is unavailable.
func (s *Sampler) Sample() (uint64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc == nil {
		return 0, 0
	}

	if mem, err := s.proc.MemoryInfo(); err == nil && mem.RSS > s.peakRSS {
		s.peakRSS = mem.RSS
	}

	cpuPercent, err := s.proc.CPUPercent()
	if err != nil {
		cpuPercent = 0
	}

	return s.peakRSS, cpuPercent
}
