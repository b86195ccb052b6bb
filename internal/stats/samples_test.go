package stats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleSetConcurrentRecord(t *testing.T) {
	const (
		workers   = 50
		perWorker = 200
	)

	s := NewSampleSet(workers * perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				s.Record(float64(w*perWorker + i))
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, s.Len())

	snap := s.Snapshot()
	assert.Len(t, snap, workers*perWorker)

	seen := make(map[float64]bool, len(snap))
	for _, v := range snap {
		seen[v] = true
	}
	assert.Len(t, seen, workers*perWorker, "no sample lost or duplicated")
}

func TestSampleSetSnapshotIsCopy(t *testing.T) {
	s := NewSampleSet(0)
	s.Record(1)
	snap := s.Snapshot()
	s.Record(2)

	assert.Len(t, snap, 1)
	assert.Len(t, s.Snapshot(), 2)
}
