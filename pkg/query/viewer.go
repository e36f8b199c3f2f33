// Package query retrieves persisted trace records for inspection.
package query

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/harun/redtrace/pkg/store"
	"github.com/harun/redtrace/pkg/trace"
)

// Viewer reads an application's record collection. All filtering is
// in-memory; there is no store-side index.
type Viewer struct {
	mgr *store.Manager
}

// NewViewer creates a viewer backed by mgr.
func NewViewer(mgr *store.Manager) *Viewer {
	return &Viewer{mgr: mgr}
}

// FetchAll returns every record stored for app in ascending timestamp
// order. The contract is all-or-nothing: a single member that fails to
// decode fails the whole call, so callers never see a partial result.
func (v *Viewer) FetchAll(ctx context.Context, app string) ([]trace.Record, error) {
	g, err := v.mgr.Async(ctx)
	if err != nil {
		return nil, err
	}
	defer g.Release()

	members, err := g.Session().ZRangeByScore(ctx, trace.Key(app), &redis.ZRangeBy{
		Min: "-inf",
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: range %q: %v", store.ErrStoreProtocol, trace.Key(app), err)
	}

	records := make([]trace.Record, 0, len(members))
	for _, member := range members {
		rec, err := trace.DecodeRecord(member)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ByApp returns all records for app.
func (v *Viewer) ByApp(ctx context.Context, app string) ([]trace.Record, error) {
	return v.FetchAll(ctx, app)
}

// BySpanName returns app's records whose span name matches exactly.
func (v *Viewer) BySpanName(ctx context.Context, app, spanName string) ([]trace.Record, error) {
	return v.filtered(ctx, app, func(r trace.Record) bool {
		return r.SpanName != nil && *r.SpanName == spanName
	})
}

// ByServiceName returns app's records whose service name matches exactly.
func (v *Viewer) ByServiceName(ctx context.Context, app, serviceName string) ([]trace.Record, error) {
	return v.filtered(ctx, app, func(r trace.Record) bool {
		return r.ServiceName != nil && *r.ServiceName == serviceName
	})
}

// ByJobID returns app's records whose job identifier matches exactly.
func (v *Viewer) ByJobID(ctx context.Context, app, jobID string) ([]trace.Record, error) {
	return v.filtered(ctx, app, func(r trace.Record) bool {
		return r.JobID != nil && *r.JobID == jobID
	})
}

// filtered preserves the stored timestamp order.
func (v *Viewer) filtered(ctx context.Context, app string, keep func(trace.Record) bool) ([]trace.Record, error) {
	all, err := v.FetchAll(ctx, app)
	if err != nil {
		return nil, err
	}
	out := make([]trace.Record, 0, len(all))
	for _, r := range all {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}
