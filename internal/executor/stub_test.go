package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynobench/internal/bench"
)

func TestStubLatency(t *testing.T) {
	s := &Stub{Latency: 20 * time.Millisecond}

	start := time.Now()
	err := s.Execute(context.Background(), bench.QuerySpec{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.EqualValues(t, 1, s.Calls())
}

func TestStubHonorsDeadline(t *testing.T) {
	s := &Stub{Latency: 500 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := s.Execute(ctx, bench.QuerySpec{})
	assert.Less(t, time.Since(start), 300*time.Millisecond)
	assert.Equal(t, bench.KindTimeout, bench.KindOf(err))
}

func TestStubFailEvery(t *testing.T) {
	s := &Stub{FailEvery: 3}

	var failed int
	for i := 0; i < 9; i++ {
		if err := s.Execute(context.Background(), bench.QuerySpec{}); err != nil {
			failed++
			assert.Equal(t, bench.KindTransientNetwork, bench.KindOf(err))
		}
	}
	assert.Equal(t, 3, failed)
}
