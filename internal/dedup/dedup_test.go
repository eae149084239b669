package dedup

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func key(user string) Key {
	return Key{UserID: user, ProductType: "Labels", TotalAmount: 500}
}

func TestAcquireRelease(t *testing.T) {
	g := NewGuard(8)

	release, err := g.Acquire(key("u1"))
	require.NoError(t, err)
	assert.Equal(t, 1, g.Len())

	_, err = g.Acquire(key("u1"))
	assert.ErrorIs(t, err, ErrInFlight)

	// A different key is unaffected.
	release2, err := g.Acquire(key("u2"))
	require.NoError(t, err)
	release2()

	release()
	assert.Equal(t, 0, g.Len())

	// After release a retry goes through.
	release, err = g.Acquire(key("u1"))
	require.NoError(t, err)
	release()
}

func TestReleaseIsIdempotent(t *testing.T) {
	g := NewGuard(8)
	release, err := g.Acquire(key("u1"))
	require.NoError(t, err)

	release()
	release()
	assert.Equal(t, 0, g.Len())

	// Double release must not remove a fresh holder of the same key.
	release2, err := g.Acquire(key("u1"))
	require.NoError(t, err)
	release()
	assert.Equal(t, 1, g.Len())
	release2()
}

func TestConcurrentAcquireOneWins(t *testing.T) {
	g := NewGuard(8)

	const attempts = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	var wins, inflight int
	var releases []func()

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := g.Acquire(key("u1"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				// Hold until the end so every other attempt sees it in flight.
				releases = append(releases, release)
				return
			}
			if errors.Is(err, ErrInFlight) {
				inflight++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, attempts-1, inflight)
	for _, release := range releases {
		release()
	}
	assert.Equal(t, 0, g.Len())
}

func TestCapacityBound(t *testing.T) {
	g := NewGuard(2)

	r1, err := g.Acquire(key("u1"))
	require.NoError(t, err)
	r2, err := g.Acquire(key("u2"))
	require.NoError(t, err)

	_, err = g.Acquire(key("u3"))
	assert.ErrorIs(t, err, ErrCapacity)

	r1()
	r3, err := g.Acquire(key("u3"))
	require.NoError(t, err)
	r3()
	r2()
}
