package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// LiveHistogram feeds the in-flight progress view. It trades exactness
// for cheap concurrent reads mid-run; the final report is computed by
// Reduce over the raw SampleSet instead.
type LiveHistogram struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

func NewLiveHistogram() *LiveHistogram {
	// 1us to 10min, 3 significant figures
	return &LiveHistogram{
		hist: hdrhistogram.New(1, int64(10*time.Minute/time.Microsecond), 3),
	}
}

func (h *LiveHistogram) Record(d time.Duration) {
	h.mu.Lock()
	_ = h.hist.RecordValue(d.Microseconds())
	h.mu.Unlock()
}

// QuantileMs returns the latency at quantile q (0-100) in milliseconds.
func (h *LiveHistogram) QuantileMs(q float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return float64(h.hist.ValueAtQuantile(q)) / 1000.0
}

func (h *LiveHistogram) MaxMs() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return float64(h.hist.Max()) / 1000.0
}

func (h *LiveHistogram) MeanMs() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.Mean() / 1000.0
}

func (h *LiveHistogram) Count() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hist.TotalCount()
}
