// Package sink captures structured log events raised under persist-
// eligible spans and writes them to the store in the background.
package sink

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/harun/redtrace/internal/observability"
	"github.com/harun/redtrace/pkg/store"
	"github.com/harun/redtrace/pkg/trace"
)

const (
	defaultQueueSize = 256
	defaultWorkers   = 4
)

// Options configures a Sink.
type Options struct {
	// QueueSize bounds the persistence queue. When it is full new
	// records are dropped, counted, and reported on the diagnostic
	// logger; the emitting call site is never blocked.
	QueueSize int

	// Workers is the number of fixed persistence workers.
	Workers int

	// Diagnostics receives out-of-band reports of dropped records and
	// persistence failures. Failures are invisible to the emitting
	// call site, so this is the only place they surface.
	Diagnostics zerolog.Logger
}

// Sink is a zerolog.Hook that turns qualifying events into stored
// records. Install it on the logger that emitting code uses and attach
// span context to each event:
//
//	logger := zerolog.New(w).Hook(s)
//	ctx, _ = trace.StartSpan(ctx, "apalis_job", trace.WithPersist())
//	logger.Info().Ctx(ctx).Msg("Processing job")
//
// The hook path never touches the store; persistence is handed to a
// bounded queue served by a fixed worker pool.
type Sink struct {
	app  string
	mgr  *store.Manager
	diag zerolog.Logger

	queue  chan trace.Record
	notify chan struct{}
	wg     sync.WaitGroup
	closed atomic.Bool

	// mu orders enqueues in Run against the queue close in Close; the
	// closed flag alone cannot prevent a send racing the close.
	mu sync.RWMutex
}

// New creates a sink persisting records for app and starts its workers.
func New(app string, mgr *store.Manager, opts Options) *Sink {
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	s := &Sink{
		app:    app,
		mgr:    mgr,
		diag:   opts.Diagnostics.With().Str("component", "sink").Str("app", app).Logger(),
		queue:  make(chan trace.Record, queueSize),
		notify: make(chan struct{}, queueSize+workers),
	}

	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.worker()
	}
	return s
}

// Run implements zerolog.Hook. Events with no active span chain are
// discarded, as are events whose chain carries no persist marker.
func (s *Sink) Run(e *zerolog.Event, level zerolog.Level, message string) {
	if s.closed.Load() || level == zerolog.Disabled {
		return
	}

	sp := trace.FromContext(e.GetCtx())
	if sp == nil || !sp.PersistRequested() {
		return
	}

	spanID, spanName := sp.ID, sp.Name
	rec := trace.Record{
		Timestamp: time.Now().UTC().Format(trace.TimeFormat),
		Level:     strings.ToUpper(level.String()),
		Message:   message,
		SpanID:    &spanID,
		TraceID:   sp.Root().ID,
		SpanName:  &spanName,
	}
	if sp.JobID != "" {
		jobID := sp.JobID
		rec.JobID = &jobID
	}
	if sp.ServiceName != "" {
		serviceName := sp.ServiceName
		rec.ServiceName = &serviceName
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return
	}
	select {
	case s.queue <- rec:
		observability.SetSinkQueueDepth(len(s.queue))
	default:
		observability.RecordDropped()
		s.diag.Warn().Str("trace_id", rec.TraceID).Msg("Persistence queue full, record dropped")
	}
}

// Flush waits until one persisted-record notification arrives. It is
// not a barrier over all pending writes: one call guarantees only that
// at least one record has landed. Callers needing a full barrier call
// it once per expected record.
func (s *Sink) Flush(ctx context.Context) error {
	select {
	case <-s.notify:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting records and waits for the workers to drain the
// queue.
func (s *Sink) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.mu.Lock()
	close(s.queue)
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Sink) worker() {
	defer s.wg.Done()
	for rec := range s.queue {
		observability.SetSinkQueueDepth(len(s.queue))
		s.persist(rec)
	}
}

// persist writes one record. Failures stay on this side of the
// fire-and-forget boundary: they are counted and reported on the
// diagnostic logger, never surfaced to the emitter.
func (s *Sink) persist(rec trace.Record) {
	start := time.Now()
	ctx := context.Background()

	score, err := rec.Score()
	if err != nil {
		observability.PersistFailed()
		s.diag.Error().Err(err).Msg("Record has unusable timestamp")
		return
	}
	member, err := rec.Encode()
	if err != nil {
		observability.PersistFailed()
		s.diag.Error().Err(err).Msg("Record could not be encoded")
		return
	}

	g, err := s.mgr.Async(ctx)
	if err != nil {
		observability.PersistFailed()
		s.diag.Error().Err(err).Msg("No store session for persistence")
		return
	}
	defer g.Release()

	err = g.Session().ZAdd(ctx, trace.Key(s.app), redis.Z{Score: score, Member: member}).Err()
	if err != nil {
		observability.PersistFailed()
		s.diag.Error().Err(err).Str("trace_id", rec.TraceID).Msg("Record write failed")
		return
	}

	observability.RecordPersisted(time.Since(start).Seconds())
	select {
	case s.notify <- struct{}{}:
	default:
	}
}
