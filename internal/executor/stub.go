package executor

import (
	"context"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"dynobench/internal/bench"
)

// Stub fakes a backend with a configurable latency profile. It backs
// the --simulate mode so the whole pipeline can be exercised without a
// table or credentials.
type Stub struct {
	Latency time.Duration // base service time per attempt
	Jitter  time.Duration // uniform extra latency in [0, Jitter)
	// FailEvery injects a transient-network failure on every n-th call
	// (0 = never fail).
	FailEvery int

	calls int64
}

func (s *Stub) Execute(ctx context.Context, _ bench.QuerySpec) error {
	n := atomic.AddInt64(&s.calls, 1)

	d := s.Latency
	if s.Jitter > 0 {
		d += time.Duration(rand.Int63n(int64(s.Jitter)))
	}

	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return &bench.QueryError{Kind: bench.KindTimeout, Err: ctx.Err()}
		}
	}

	if s.FailEvery > 0 && n%int64(s.FailEvery) == 0 {
		return &bench.QueryError{
			Kind: bench.KindTransientNetwork,
			Err:  errors.New("injected failure"),
		}
	}
	return nil
}

// Calls reports how many attempts the stub has served.
func (s *Stub) Calls() int64 {
	return atomic.LoadInt64(&s.calls)
}
