package cli

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"dynobench/internal/bench"
)

// Options couples one run's configuration with presentation concerns.
type Options struct {
	Cfg       bench.RunConfig
	Spec      bench.QuerySpec
	Exec      bench.Executor
	OutPrefix string // write <prefix>.json when set
}

// Run drives a headless benchmark and renders the report. The returned
// exit code is 0 whenever a report was produced, even if every query
// failed.
func Run(ctx context.Context, opts Options) int {
	printHeader(opts.Cfg, opts.Spec)

	updates := make(chan bench.Snapshot, 100)
	b := bench.New(opts.Cfg, opts.Spec, opts.Exec, updates)

	resCh := make(chan bench.Result, 1)
	go func() { resCh <- b.Run(ctx) }()

	for {
		select {
		case s := <-updates:
			printProgress(s)
		case res := <-resCh:
			PrintReport(opts.Cfg, opts.Spec, res)
			if opts.OutPrefix != "" {
				if err := ExportJSON(opts.OutPrefix, opts.Cfg, opts.Spec, res); err != nil {
					fmt.Printf("⚠️  Could not write %s.json: %v\n", opts.OutPrefix, err)
				} else {
					fmt.Printf("💾 Report saved to %s.json\n", opts.OutPrefix)
				}
			}
			return 0
		}
	}
}

func printHeader(cfg bench.RunConfig, spec bench.QuerySpec) {
	fmt.Printf("\n🚀 DYNOBENCH RANGE-QUERY BENCHMARK\n")
	fmt.Printf("======================================================================\n")
	fmt.Printf("Table       : %s (%s)\n", spec.Table, cfg.Region)
	fmt.Printf("Partition   : %s = %q\n", spec.PartitionKey, spec.PartitionValue)
	if spec.SortKey != "" {
		fmt.Printf("Sort Range  : %s in [%s, %s]\n", spec.SortKey, orAny(spec.SortStart), orAny(spec.SortEnd))
	}
	fmt.Printf("Queries     : %d (+%d warmup)\n", cfg.NumQueries, cfg.Warmup)
	fmt.Printf("QPS Target  : %s\n", orUnlimited(cfg.QPS))
	fmt.Printf("Parallelism : %d\n", cfg.Parallelism)
	fmt.Printf("Consistency : %s\n", spec.Consistency)
	fmt.Printf("Retries     : %d, per-attempt timeout %s\n", cfg.MaxRetries, orNone(cfg.Timeout))
	fmt.Printf("======================================================================\n\n")
}

func printProgress(s bench.Snapshot) {
	switch s.Phase {
	case bench.PhaseWarmup:
		fmt.Printf("Warmup %d/%d\n", s.Done, s.Total)
	case bench.PhaseMeasuring:
		fmt.Printf("Completed %d/%d queries | inflight %d | failed %d | p50 %.1f ms | p99 %.1f ms\n",
			s.Done, s.Total, s.Inflight, s.Failed, s.P50Ms, s.P99Ms)
	}
}

// PrintReport renders the final human-readable report block.
func PrintReport(cfg bench.RunConfig, spec bench.QuerySpec, res bench.Result) {
	r := res.Report

	fmt.Printf("\n📊 RESULTS (run %s)\n", res.RunID)
	fmt.Printf("======================================================================\n")
	fmt.Printf("Duration    : %s\n", r.Duration.Round(time.Millisecond))
	fmt.Printf("Successful  : %d\n", r.Count)
	fmt.Printf("Failed      : %d\n", res.TotalFailures)
	fmt.Printf("Config      : parallelism %d, %s consistency, %d retries\n",
		cfg.Parallelism, spec.Consistency, cfg.MaxRetries)

	if r.NoData {
		fmt.Printf("\n⚠️  No successful samples: latency statistics unavailable.\n")
		printFailures(res)
		fmt.Printf("======================================================================\n")
		return
	}

	fmt.Printf("Throughput  : %.1f queries/s\n", r.Throughput)

	fmt.Printf("\n⏱️  LATENCY (ms) [successful attempts only]\n")
	fmt.Printf("   Min    : %.3f\n", r.Min)
	fmt.Printf("   Max    : %.3f\n", r.Max)
	fmt.Printf("   Mean   : %.3f\n", r.Mean)
	fmt.Printf("   Stddev : %.3f\n", r.Stddev)

	fmt.Printf("\n   P50    : %.3f\n", r.P50)
	fmt.Printf("   P75    : %.3f\n", r.P75)
	fmt.Printf("   P90    : %.3f\n", r.P90)
	fmt.Printf("   P95    : %.3f\n", r.P95)
	fmt.Printf("   P99    : %.3f\n", r.P99)
	fmt.Printf("   P99.9  : %.3f\n", r.P999)
	fmt.Printf("   P99.99 : %.3f\n", r.P9999)

	fmt.Printf("\n   p99/p50   : %s\n", fmtRatio(r.TailP99))
	fmt.Printf("   p99.9/p50 : %s\n", fmtRatio(r.TailP999))

	printFailures(res)
	fmt.Printf("======================================================================\n")
}

func printFailures(res bench.Result) {
	if len(res.Failures) == 0 {
		return
	}
	fmt.Printf("\n❌ FAILURES BY KIND\n")
	kinds := make([]bench.FailureKind, 0, len(res.Failures))
	for k := range res.Failures {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		fmt.Printf("   %d x %s\n", res.Failures[k], k)
	}
}

func fmtRatio(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2fx", v)
}

func orAny(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

func orUnlimited(qps int) string {
	if qps <= 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%d", qps)
}

func orNone(d time.Duration) string {
	if d <= 0 {
		return "none"
	}
	return d.String()
}
