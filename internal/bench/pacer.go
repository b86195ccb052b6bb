package bench

import (
	"context"

	"golang.org/x/time/rate"
)

// Pacer meters out permission to start one logical query per rate slot.
// With burst 1 the limiter reserves absolute slot times from its start
// instant, so slot i falls due at start + i/QPS and rounding error does
// not accumulate over long runs. Callers are granted slots in arrival
// order.
type Pacer struct {
	lim *rate.Limiter
}

// NewPacer builds a pacer for the given QPS target. qps <= 0 means
// unlimited: Wait returns immediately.
func NewPacer(qps int) *Pacer {
	limit := rate.Inf
	if qps > 0 {
		limit = rate.Limit(qps)
	}
	return &Pacer{lim: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the caller's slot falls due.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.lim.Wait(ctx)
}
