package orchestrator

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryAcquireRelease(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.TryAcquire(1))
	assert.False(t, r.TryAcquire(1))
	assert.True(t, r.Active(1))
	assert.Equal(t, 1, r.Len())

	// Another user is unaffected.
	assert.True(t, r.TryAcquire(2))

	r.Release(1)
	assert.False(t, r.Active(1))
	assert.True(t, r.TryAcquire(1))
}

func TestRegistryReleaseIdempotent(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.TryAcquire(1))
	r.Release(1)
	r.Release(1)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryConcurrentAcquireSingleWinner(t *testing.T) {
	r := NewRegistry()

	var wins int64
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.TryAcquire(7) {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins)
	assert.Equal(t, 1, r.Len())
}
