package store

import (
	"sync"
	"time"
)

// entry is one idle session waiting for reuse.
type entry[T any] struct {
	id        string
	session   T
	idleSince time.Time
}

// Pool is a bounded FIFO cache of idle sessions of one kind. It knows
// nothing about what a session is; closing is delegated to the closeFn
// supplied at construction.
//
// The mutex is held only across pop/push bookkeeping. Session creation
// and teardown always happen outside the critical section so that a
// slow store round-trip never blocks other callers on the lock.
type Pool[T any] struct {
	mu      sync.Mutex
	idle    []entry[T]
	max     int
	closeFn func(T)
}

// NewPool creates a pool that caches at most max idle sessions.
// Overflow and expired sessions are handed to closeFn.
func NewPool[T any](max int, closeFn func(T)) *Pool[T] {
	if max < 0 {
		max = 0
	}
	return &Pool[T]{max: max, closeFn: closeFn}
}

// Get pops the oldest idle session, if any.
func (p *Pool[T]) Get() (id string, session T, ok bool) {
	p.mu.Lock()
	if len(p.idle) == 0 {
		p.mu.Unlock()
		var zero T
		return "", zero, false
	}
	e := p.idle[0]
	p.idle = p.idle[1:]
	p.mu.Unlock()
	return e.id, e.session, true
}

// Put returns a session to the pool. If the pool is full the session is
// closed instead and Put reports false; the pool is a best-effort cache,
// not a limiter on total live sessions.
func (p *Pool[T]) Put(id string, session T) bool {
	p.mu.Lock()
	if len(p.idle) < p.max {
		p.idle = append(p.idle, entry[T]{id: id, session: session, idleSince: time.Now()})
		p.mu.Unlock()
		return true
	}
	p.mu.Unlock()

	// Close outside the lock.
	if p.closeFn != nil {
		p.closeFn(session)
	}
	return false
}

// Len reports the number of idle sessions currently cached.
func (p *Pool[T]) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// Sweep closes sessions that have been idle longer than maxIdle and
// reports how many were evicted. A maxIdle of zero disables eviction.
func (p *Pool[T]) Sweep(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-maxIdle)

	p.mu.Lock()
	var expired []entry[T]
	kept := p.idle[:0]
	for _, e := range p.idle {
		if e.idleSince.Before(cutoff) {
			expired = append(expired, e)
		} else {
			kept = append(kept, e)
		}
	}
	p.idle = kept
	p.mu.Unlock()

	for _, e := range expired {
		if p.closeFn != nil {
			p.closeFn(e.session)
		}
	}
	return len(expired)
}

// Drain empties the pool, closing every idle session.
func (p *Pool[T]) Drain() {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, e := range idle {
		if p.closeFn != nil {
			p.closeFn(e.session)
		}
	}
}
