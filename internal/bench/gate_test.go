package bench

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateBoundsOverlap(t *testing.T) {
	const (
		limit   = 4
		workers = 32
	)

	g := NewGate(limit)

	var (
		mu      sync.Mutex
		cur     int
		highest int
	)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !assert.NoError(t, g.Enter(context.Background())) {
				return
			}
			defer g.Exit()

			mu.Lock()
			cur++
			if cur > highest {
				highest = cur
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			cur--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, highest, limit)
	assert.Equal(t, 0, cur)
}

func TestGateMinimumCapacity(t *testing.T) {
	g := NewGate(0) // clamped to 1
	require.NoError(t, g.Enter(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, g.Enter(ctx), "second entry must block on a capacity-1 gate")

	g.Exit()
	require.NoError(t, g.Enter(context.Background()))
	g.Exit()
}
