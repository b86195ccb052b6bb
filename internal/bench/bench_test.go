package bench

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunConservesOutcomes(t *testing.T) {
	const n = 40

	var calls int64
	exec := execFunc(func(context.Context, QuerySpec) error {
		if atomic.AddInt64(&calls, 1)%4 == 0 {
			return &QueryError{Kind: KindTransientNetwork, Err: errors.New("flaky")}
		}
		return nil
	})

	cfg := RunConfig{NumQueries: n, Parallelism: 8}
	b := New(cfg, QuerySpec{}, exec, nil)
	res := b.Run(context.Background())

	assert.EqualValues(t, n, uint64(res.Report.Count)+res.TotalFailures)
	assert.Equal(t, PhaseDone, b.Phase())
}

func TestRunWarmupOutcomesDiscarded(t *testing.T) {
	const (
		warmup = 5
		n      = 10
	)

	// Every warmup call fails; warmup failures are tolerated and must
	// not surface in the report.
	var calls int64
	exec := execFunc(func(context.Context, QuerySpec) error {
		if atomic.AddInt64(&calls, 1) <= warmup {
			return &QueryError{Kind: KindOther, Err: errors.New("cold start")}
		}
		return nil
	})

	cfg := RunConfig{NumQueries: n, Warmup: warmup, Parallelism: 1}
	b := New(cfg, QuerySpec{}, exec, nil)
	res := b.Run(context.Background())

	assert.EqualValues(t, warmup+n, atomic.LoadInt64(&calls))
	assert.Equal(t, n, res.Report.Count)
	assert.Zero(t, res.TotalFailures)
	assert.Greater(t, res.WarmupDuration, time.Duration(0))
}

func TestRunAllFailuresStillReports(t *testing.T) {
	exec := execFunc(func(context.Context, QuerySpec) error {
		return &QueryError{Kind: KindUnauthorized, Err: errors.New("denied")}
	})

	cfg := RunConfig{NumQueries: 7, Parallelism: 4}
	b := New(cfg, QuerySpec{}, exec, nil)
	res := b.Run(context.Background())

	assert.True(t, res.Report.NoData)
	assert.EqualValues(t, 7, res.TotalFailures)
	assert.EqualValues(t, 7, res.Failures[KindUnauthorized])
}

func TestRunFailureCountsByKind(t *testing.T) {
	var calls int64
	exec := execFunc(func(context.Context, QuerySpec) error {
		switch atomic.AddInt64(&calls, 1) % 3 {
		case 0:
			return &QueryError{Kind: KindThrottled, Err: errors.New("throttle")}
		case 1:
			return &QueryError{Kind: KindInvalidRequest, Err: errors.New("bad")}
		}
		return nil
	})

	cfg := RunConfig{NumQueries: 30, Parallelism: 1}
	b := New(cfg, QuerySpec{}, exec, nil)
	res := b.Run(context.Background())

	assert.EqualValues(t, 10, res.Failures[KindThrottled])
	assert.EqualValues(t, 10, res.Failures[KindInvalidRequest])
	assert.Equal(t, 10, res.Report.Count)
}

func TestRunPublishesProgressWithoutBlocking(t *testing.T) {
	exec := execFunc(func(context.Context, QuerySpec) error { return nil })

	// Tiny unbuffered-ish channel nobody drains: the run must still
	// finish because publishes are drop-on-full.
	updates := make(chan Snapshot, 1)
	cfg := RunConfig{NumQueries: 50, Parallelism: 4, ProgressEvery: 5}
	b := New(cfg, QuerySpec{}, exec, updates)

	done := make(chan Result, 1)
	go func() { done <- b.Run(context.Background()) }()

	select {
	case res := <-done:
		assert.Equal(t, 50, res.Report.Count)
	case <-time.After(5 * time.Second):
		t.Fatal("run blocked on progress publishing")
	}
}

func TestRunEndToEndPacedStub(t *testing.T) {
	if testing.Short() {
		t.Skip("paced end-to-end run takes ~2s")
	}

	exec := execFunc(func(ctx context.Context, _ QuerySpec) error {
		select {
		case <-time.After(25 * time.Millisecond):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	cfg := RunConfig{NumQueries: 20, QPS: 10, Parallelism: 2}
	b := New(cfg, QuerySpec{}, exec, nil)

	start := time.Now()
	res := b.Run(context.Background())
	wall := time.Since(start)

	// 20 queries at 10 QPS: the last slot is due at 1.9s
	assert.GreaterOrEqual(t, wall, 1900*time.Millisecond)
	assert.Less(t, wall, 4*time.Second)

	r := res.Report
	require.Equal(t, 20, r.Count)
	assert.Zero(t, res.TotalFailures)

	assert.GreaterOrEqual(t, r.Min, 24.0)
	assert.Less(t, r.Max, 200.0)
	assert.InDelta(t, r.Mean, r.P50, 15.0)
	assert.Less(t, r.Stddev, 25.0)
	assert.GreaterOrEqual(t, r.TailP99, 1.0)
	assert.Less(t, r.TailP99, 3.0)

	// ~10 successful queries/second against measuring wall time
	assert.InDelta(t, 10.0, r.Throughput, 2.5)
}

func TestRunZeroQueries(t *testing.T) {
	exec := execFunc(func(context.Context, QuerySpec) error { return nil })
	b := New(RunConfig{NumQueries: 0, Parallelism: 1}, QuerySpec{}, exec, nil)
	res := b.Run(context.Background())

	assert.True(t, res.Report.NoData)
	assert.Zero(t, res.TotalFailures)
}
