package bench

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"dynobench/internal/stats"
)

// Phase tracks where a run is in its lifecycle.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseWarmup
	PhaseMeasuring
	PhaseReducing
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWarmup:
		return "warmup"
	case PhaseMeasuring:
		return "measuring"
	case PhaseReducing:
		return "reducing"
	default:
		return "done"
	}
}

// Snapshot is a cheap copy of run progress, pushed over the updates
// channel at batch boundaries for the CLI/TUI to render.
type Snapshot struct {
	Phase    Phase
	Done     uint64
	Total    int
	Failed   uint64
	Inflight int64

	// Live percentiles for display only; the report recomputes them
	// exactly from the raw samples.
	P50Ms float64
	P90Ms float64
	P99Ms float64
	MaxMs float64
}

// Result is everything a run produces.
type Result struct {
	RunID          string                 `json:"run_id"`
	Report         stats.Report           `json:"report"`
	Failures       map[FailureKind]uint64 `json:"-"`
	TotalFailures  uint64                 `json:"total_failures"`
	WarmupDuration time.Duration          `json:"warmup_duration_ns"`
}

// Bench drives one benchmark run: warmup, then the measured phase, then
// reduction. Both phases share the pacer -> gate -> retry pipeline;
// warmup outcomes are discarded.
type Bench struct {
	cfg  RunConfig
	spec QuerySpec
	exec Executor

	samples *stats.SampleSet
	live    *stats.LiveHistogram

	runID string

	phase    int32
	done     uint64
	failed   uint64
	inflight int64
	failures [kindCount]uint64

	pacer *Pacer
	gate  *Gate

	updates chan Snapshot
	log     *logrus.Entry
}

func New(cfg RunConfig, spec QuerySpec, exec Executor, updates chan Snapshot) *Bench {
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 10
	}
	if updates == nil {
		// Avoid nil panics if no display is attached
		updates = make(chan Snapshot, 16)
	}
	id := uuid.New().String()
	return &Bench{
		cfg:     cfg,
		spec:    spec,
		exec:    exec,
		samples: stats.NewSampleSet(cfg.NumQueries),
		live:    stats.NewLiveHistogram(),
		runID:   id,
		pacer:   NewPacer(cfg.QPS),
		gate:    NewGate(cfg.Parallelism),
		updates: updates,
		log:     logrus.WithField("run", id[:8]),
	}
}

func (b *Bench) RunID() string { return b.runID }

func (b *Bench) Config() RunConfig { return b.cfg }

func (b *Bench) Phase() Phase {
	return Phase(atomic.LoadInt32(&b.phase))
}

func (b *Bench) setPhase(p Phase) {
	atomic.StoreInt32(&b.phase, int32(p))
}

// Run executes the whole benchmark and always returns a Result:
// per-query failures are counted in it, never fatal. Setup failures
// belong to the caller, before Run is ever invoked.
func (b *Bench) Run(ctx context.Context) Result {
	res := Result{RunID: b.runID}

	if b.cfg.Warmup > 0 {
		b.setPhase(PhaseWarmup)
		b.log.WithField("queries", b.cfg.Warmup).Info("running warmup")
		start := time.Now()
		b.runPhase(ctx, b.cfg.Warmup, false)
		res.WarmupDuration = time.Since(start)
		b.log.WithField("took", res.WarmupDuration.Round(time.Millisecond)).Info("warmup complete")
	}

	b.setPhase(PhaseMeasuring)
	start := time.Now()
	b.runPhase(ctx, b.cfg.NumQueries, true)
	elapsed := time.Since(start)

	b.setPhase(PhaseReducing)
	res.Report = stats.Reduce(b.samples.Snapshot(), elapsed)

	res.Failures = make(map[FailureKind]uint64)
	for k := KindNone + 1; k < kindCount; k++ {
		if n := atomic.LoadUint64(&b.failures[k]); n > 0 {
			res.Failures[k] = n
			res.TotalFailures += n
		}
	}

	b.setPhase(PhaseDone)
	b.publish()
	return res
}

// runPhase pushes n logical queries through the pipeline. The pacer is
// consulted before the gate so a slot of parallelism is never held by a
// query that is still waiting on the clock.
func (b *Bench) runPhase(ctx context.Context, n int, record bool) {
	atomic.StoreUint64(&b.done, 0)
	atomic.StoreUint64(&b.failed, 0)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if err := b.pacer.Wait(ctx); err != nil {
			break
		}
		if err := b.gate.Enter(ctx); err != nil {
			break
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer b.gate.Exit()

			atomic.AddInt64(&b.inflight, 1)
			out := runQuery(ctx, b.exec, b.spec, b.cfg, idx)
			atomic.AddInt64(&b.inflight, -1)

			if record {
				b.record(out)
			} else if !out.Success() {
				// Warmup failures are tolerated; they only warm caches
				b.log.WithError(out.Err).Debug("warmup query failed")
			}

			done := atomic.AddUint64(&b.done, 1)
			if int(done) == n || done%uint64(b.cfg.ProgressEvery) == 0 {
				b.publish()
			}
		}(i)
	}
	wg.Wait()
}

func (b *Bench) record(out Outcome) {
	if out.Success() {
		b.samples.Record(float64(out.Latency) / float64(time.Millisecond))
		b.live.Record(out.Latency)
		return
	}
	atomic.AddUint64(&b.failures[out.Kind], 1)
	atomic.AddUint64(&b.failed, 1)
	b.log.WithFields(logrus.Fields{
		"index":    out.Index,
		"kind":     out.Kind.String(),
		"attempts": out.Attempts,
	}).Warn("query failed")
}

// publish pushes a snapshot without ever blocking a worker: if the
// display is behind, the update is dropped and the next boundary wins.
func (b *Bench) publish() {
	s := Snapshot{
		Phase:    b.Phase(),
		Done:     atomic.LoadUint64(&b.done),
		Failed:   atomic.LoadUint64(&b.failed),
		Inflight: atomic.LoadInt64(&b.inflight),
		P50Ms:    b.live.QuantileMs(50),
		P90Ms:    b.live.QuantileMs(90),
		P99Ms:    b.live.QuantileMs(99),
		MaxMs:    b.live.MaxMs(),
	}
	if s.Phase == PhaseWarmup {
		s.Total = b.cfg.Warmup
	} else {
		s.Total = b.cfg.NumQueries
	}
	select {
	case b.updates <- s:
	default:
	}
}
