// Package dedup provides the process-local in-flight duplicate guard.
// It only protects against re-entrant double submission inside one process;
// the recent-duplicate query in the store is the cross-process defense.
package dedup

import (
	"errors"
	"sync"
)

var (
	// ErrInFlight means an identical create is still executing.
	ErrInFlight = errors.New("identical submission in flight")
	// ErrCapacity means the guard map is at its bound.
	ErrCapacity = errors.New("in-flight guard at capacity")
)

// Key identifies a logical purchase attempt.
type Key struct {
	UserID      string
	ProductType string
	TotalAmount float64
}

// Guard is a bounded set of in-flight dedup keys.
type Guard struct {
	mu       sync.Mutex
	inflight map[Key]struct{}
	limit    int
}

func NewGuard(limit int) *Guard {
	if limit <= 0 {
		limit = 1024
	}
	return &Guard{inflight: make(map[Key]struct{}), limit: limit}
}

// Acquire reserves the key for the duration of one create call. The returned
// release removes the key unconditionally and must run on every exit path,
// success or failure, so a legitimate retry is never blocked.
func (g *Guard) Acquire(k Key) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.inflight[k]; held {
		return nil, ErrInFlight
	}
	if len(g.inflight) >= g.limit {
		return nil, ErrCapacity
	}
	g.inflight[k] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, k)
			g.mu.Unlock()
		})
	}
	return release, nil
}

// Len reports the number of keys currently held.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inflight)
}
