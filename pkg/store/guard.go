package store

import "sync"

// Guard is a scoped, exclusive borrow of one checked-out session. The
// caller releases it exactly once, typically with defer:
//
//	g, err := mgr.Async(ctx)
//	if err != nil { ... }
//	defer g.Release()
//
// Release and Discard are idempotent; whichever runs first wins and the
// session changes hands at most once.
type Guard[T any] struct {
	id      string
	session T
	putBack func(id string, session T)
	discard func(session T)
	once    sync.Once
}

// Session returns the borrowed session. The caller must not retain it
// past Release or Discard.
func (g *Guard[T]) Session() T {
	return g.session
}

// ID returns the session's pool identifier, useful in diagnostics.
func (g *Guard[T]) ID() string {
	return g.id
}

// Release hands the session back to its owning pool.
func (g *Guard[T]) Release() {
	g.once.Do(func() {
		g.putBack(g.id, g.session)
	})
}

// Discard closes the session instead of pooling it. Used when the
// session is in an unknown protocol state and must not be reused.
func (g *Guard[T]) Discard() {
	g.once.Do(func() {
		g.discard(g.session)
	})
}
