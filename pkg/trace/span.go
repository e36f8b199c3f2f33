// Package trace models hierarchically nested execution spans and the
// records persisted for events raised under them.
//
// Spans are carried explicitly on context.Context; there is no
// process-wide registry. A span opts its events into persistence with
// WithPersist; the flag is a named field and is never copied into
// child spans.
package trace

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey struct{}

// Span is a named unit of nested execution. Spans form a tree through
// Parent links; the root of the chain active when an event occurs
// supplies the event's trace identifier.
type Span struct {
	ID     string
	Name   string
	Parent *Span

	// Persist opts this span's events into persistence. It applies to
	// the subtree only through the chain walk at event time; child
	// spans do not inherit the flag itself.
	Persist bool

	// Sidecar fields denormalized onto persisted records.
	JobID       string
	ServiceName string
}

// Option configures a span at creation time.
type Option func(*Span)

// WithPersist marks the span's events as persist-eligible.
func WithPersist() Option {
	return func(s *Span) { s.Persist = true }
}

// WithJobID attaches a job identifier to the span.
func WithJobID(id string) Option {
	return func(s *Span) { s.JobID = id }
}

// WithServiceName attaches a service name to the span.
func WithServiceName(name string) Option {
	return func(s *Span) { s.ServiceName = name }
}

// StartSpan creates a span nested under whatever span is already on ctx
// and returns a context carrying it.
func StartSpan(ctx context.Context, name string, opts ...Option) (context.Context, *Span) {
	s := &Span{
		ID:     uuid.New().String(),
		Name:   name,
		Parent: FromContext(ctx),
	}
	for _, opt := range opts {
		opt(s)
	}
	return context.WithValue(ctx, ctxKey{}, s), s
}

// FromContext returns the innermost active span, or nil.
func FromContext(ctx context.Context) *Span {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(ctxKey{}).(*Span)
	return s
}

// Root walks to the root of the span chain.
func (s *Span) Root() *Span {
	for s.Parent != nil {
		s = s.Parent
	}
	return s
}

// PersistRequested reports whether any span in the chain, from this
// span up to the root, carries the persist marker.
func (s *Span) PersistRequested() bool {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Persist {
			return true
		}
	}
	return false
}
