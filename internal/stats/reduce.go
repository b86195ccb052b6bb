package stats

import (
	"math"
	"sort"
	"time"
)

// Report is the frozen summary of one measuring phase. All latency
// figures are milliseconds.
type Report struct {
	Count  int  `json:"count"`
	NoData bool `json:"no_data"`

	Min    float64 `json:"min_ms"`
	Max    float64 `json:"max_ms"`
	Mean   float64 `json:"mean_ms"`
	Stddev float64 `json:"stddev_ms"`

	P50   float64 `json:"p50_ms"`
	P75   float64 `json:"p75_ms"`
	P90   float64 `json:"p90_ms"`
	P95   float64 `json:"p95_ms"`
	P99   float64 `json:"p99_ms"`
	P999  float64 `json:"p999_ms"`
	P9999 float64 `json:"p9999_ms"`

	// Tail ratios p99/p50 and p99.9/p50. NaN when p50 == 0.
	TailP99  float64 `json:"tail_p99_p50"`
	TailP999 float64 `json:"tail_p999_p50"`

	Duration   time.Duration `json:"duration_ns"`
	Throughput float64       `json:"throughput_qps"` // successful queries per second
}

// Reduce computes the report for a frozen sample set. Percentiles are
// nearest-rank: the value at index ceil(f*n)-1 of the ascending sort,
// clamped to [0, n-1]. Stddev is the population form. Both choices are
// pinned so the same samples always reduce to an identical report,
// regardless of insertion order.
func Reduce(samples []float64, elapsed time.Duration) Report {
	n := len(samples)
	r := Report{Count: n, Duration: elapsed}
	if n == 0 {
		r.NoData = true
		return r
	}

	sorted := make([]float64, n)
	copy(sorted, samples)
	sort.Float64s(sorted)

	r.Min = sorted[0]
	r.Max = sorted[n-1]

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	r.Mean = sum / float64(n)

	var sq float64
	for _, v := range sorted {
		d := v - r.Mean
		sq += d * d
	}
	r.Stddev = math.Sqrt(sq / float64(n))

	r.P50 = nearestRank(sorted, 0.50)
	r.P75 = nearestRank(sorted, 0.75)
	r.P90 = nearestRank(sorted, 0.90)
	r.P95 = nearestRank(sorted, 0.95)
	r.P99 = nearestRank(sorted, 0.99)
	r.P999 = nearestRank(sorted, 0.999)
	r.P9999 = nearestRank(sorted, 0.9999)

	if r.P50 == 0 {
		r.TailP99 = math.NaN()
		r.TailP999 = math.NaN()
	} else {
		r.TailP99 = r.P99 / r.P50
		r.TailP999 = r.P999 / r.P50
	}

	if elapsed > 0 {
		r.Throughput = float64(n) / elapsed.Seconds()
	}
	return r
}

func nearestRank(sorted []float64, f float64) float64 {
	idx := int(math.Ceil(f*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
