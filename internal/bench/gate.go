package bench

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate bounds the number of logical queries with an in-flight attempt.
// It is independent of the Pacer: the pacer decides when a query may
// start, the gate decides how many may be running at once.
type Gate struct {
	sem *semaphore.Weighted
}

func NewGate(parallelism int) *Gate {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Gate{sem: semaphore.NewWeighted(int64(parallelism))}
}

// Enter blocks while the full parallelism budget is in use.
func (g *Gate) Enter(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// Exit releases one slot, unblocking a waiter if any are queued.
func (g *Gate) Exit() {
	g.sem.Release(1)
}
