package cli

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"dynobench/internal/bench"
)

// ExportJSON writes the machine-readable counterpart of the console
// report. NaN tail ratios are omitted rather than emitted, since JSON
// has no encoding for them.
func ExportJSON(prefix string, cfg bench.RunConfig, spec bench.QuerySpec, res bench.Result) error {
	failures := make(map[string]uint64, len(res.Failures))
	for k, n := range res.Failures {
		failures[k.String()] = n
	}

	r := res.Report
	payload := map[string]interface{}{
		"run_id":      res.RunID,
		"config":      cfg,
		"spec":        spec,
		"successful":  r.Count,
		"failed":      res.TotalFailures,
		"failures":    failures,
		"duration_ms": float64(r.Duration.Milliseconds()),
		"warmup_ms":   float64(res.WarmupDuration.Milliseconds()),
		"no_data":     r.NoData,
		"throughput":  r.Throughput,
	}
	if !r.NoData {
		payload["latency_ms"] = map[string]float64{
			"min": r.Min, "max": r.Max, "mean": r.Mean, "stddev": r.Stddev,
			"p50": r.P50, "p75": r.P75, "p90": r.P90, "p95": r.P95,
			"p99": r.P99, "p999": r.P999, "p9999": r.P9999,
		}
		if r.P50 != 0 {
			payload["tail_ratios"] = map[string]float64{
				"p99_p50":  r.TailP99,
				"p999_p50": r.TailP999,
			}
		}
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding report")
	}
	return os.WriteFile(prefix+".json", data, 0o644)
}
