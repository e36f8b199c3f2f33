// Package store manages pooled Redis sessions and one-shot pub/sub rendezvous.
//
// Invariants:
// - A Guard returns its session to the pool at most once; Release after
//   Discard (or vice versa) is a no-op.
// - Pool checkout and return never hold the pool lock across network I/O.
// - A pub/sub session is only pooled again once its subscription state has
//   been fully settled; otherwise it is discarded.
//
// Usage:
//
//	mgr, err := store.NewManager(ctx, "redis://127.0.0.1:6379/0", store.Options{})
//	if err != nil {
//		return err
//	}
//	defer mgr.Close()
//	guard, err := mgr.Plain(ctx)
//	if err != nil {
//		return err
//	}
//	defer guard.Release()
package store
