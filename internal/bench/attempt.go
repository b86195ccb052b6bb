package bench

import (
	"context"
	"time"

	"github.com/avast/retry-go"
)

// runQuery drives one logical query to a terminal Outcome, making up to
// 1+MaxRetries attempts back-to-back. Only retryable kinds (throttling,
// transient network, timeout) earn another attempt. A success records
// the duration of the winning attempt only; failed attempts before it
// count toward Attempts, not toward timing.
func runQuery(ctx context.Context, exec Executor, spec QuerySpec, cfg RunConfig, index int) Outcome {
	var (
		attempts int
		latency  time.Duration
	)

	err := retry.Do(
		func() error {
			attempts++

			actx := ctx
			cancel := func() {}
			if cfg.Timeout > 0 {
				actx, cancel = context.WithTimeout(ctx, cfg.Timeout)
			}
			defer cancel()

			start := time.Now()
			if err := exec.Execute(actx, spec); err != nil {
				if actx.Err() == context.DeadlineExceeded {
					// The attempt outlived its budget; whatever the
					// executor reported, this is a timeout.
					return &QueryError{Kind: KindTimeout, Err: actx.Err()}
				}
				return err
			}
			latency = time.Since(start)
			return nil
		},
		retry.Attempts(uint(cfg.MaxRetries)+1),
		retry.Delay(0),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return KindOf(err).Retryable()
		}),
	)

	out := Outcome{Index: index, Attempts: attempts, Latency: latency}
	if err != nil {
		out.Err = err
		out.Kind = KindOf(err)
		out.Latency = 0
	}
	return out
}
