package stats

import "sync"

// SampleSet accumulates successful latencies (milliseconds) from
// concurrent workers. Writes are mutex-serialized; reads happen only
// after the orchestrator has joined every worker.
type SampleSet struct {
	mu      sync.Mutex
	samples []float64
}

func NewSampleSet(capacity int) *SampleSet {
	if capacity < 0 {
		capacity = 0
	}
	return &SampleSet{samples: make([]float64, 0, capacity)}
}

// Record appends one latency. Safe for concurrent use.
func (s *SampleSet) Record(ms float64) {
	s.mu.Lock()
	s.samples = append(s.samples, ms)
	s.mu.Unlock()
}

func (s *SampleSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

// Snapshot returns a copy of everything recorded so far.
func (s *SampleSet) Snapshot() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float64, len(s.samples))
	copy(out, s.samples)
	return out
}
