package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager(t *testing.T, opts Options) (*miniredis.Miniredis, *Manager) {
	t.Helper()
	s := miniredis.RunT(t)

	m, err := NewManager(context.Background(), "redis://"+s.Addr(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	return s, m
}

func TestNewManager_ConnectFailed(t *testing.T) {
	_, err := NewManager(context.Background(), "redis://127.0.0.1:1", Options{})

	assert.ErrorIs(t, err, ErrConnectFailed)
}

func TestNewManager_BadURL(t *testing.T) {
	_, err := NewManager(context.Background(), "://nope", Options{})

	assert.ErrorIs(t, err, ErrConnectFailed)
}

func TestManager_CheckoutReusesReleasedSession(t *testing.T) {
	_, m := testManager(t, Options{MaxIdle: 2})
	ctx := context.Background()

	g, err := m.Async(ctx)
	require.NoError(t, err)
	firstID := g.ID()
	g.Release()

	assert.Equal(t, 1, m.IdleSessions(KindAsync))

	g2, err := m.Async(ctx)
	require.NoError(t, err)
	defer g2.Release()

	assert.Equal(t, firstID, g2.ID())
	assert.Equal(t, 0, m.IdleSessions(KindAsync))
}

func TestManager_KindsArePooledSeparately(t *testing.T) {
	_, m := testManager(t, Options{MaxIdle: 2})
	ctx := context.Background()

	gp, err := m.Plain(ctx)
	require.NoError(t, err)
	ga, err := m.Async(ctx)
	require.NoError(t, err)
	gs, err := m.PubSub(ctx)
	require.NoError(t, err)

	gp.Release()
	ga.Release()
	gs.Release()

	assert.Equal(t, 1, m.IdleSessions(KindPlain))
	assert.Equal(t, 1, m.IdleSessions(KindAsync))
	assert.Equal(t, 1, m.IdleSessions(KindPubSub))
}

func TestManager_CheckoutAfterStoreGone(t *testing.T) {
	s, m := testManager(t, Options{MaxIdle: 2})
	s.Close()

	_, err := m.Async(context.Background())

	assert.ErrorIs(t, err, ErrConnectFailed)
}

// Three concurrent checkouts against a pool capped at two: after all
// three release, two sessions stay idle and one is closed.
func TestManager_OverflowSessionDiscarded(t *testing.T) {
	_, m := testManager(t, Options{MaxIdle: 2})
	ctx := context.Background()

	var wg sync.WaitGroup
	checked := make(chan func(), 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := m.Async(ctx)
			if assert.NoError(t, err) {
				checked <- g.Release
			}
		}()
	}
	wg.Wait()
	close(checked)

	for release := range checked {
		release()
	}

	assert.Equal(t, 2, m.IdleSessions(KindAsync))
}

func TestManager_DoubleReleaseDoesNotDuplicate(t *testing.T) {
	_, m := testManager(t, Options{MaxIdle: 4})
	ctx := context.Background()

	g, err := m.Async(ctx)
	require.NoError(t, err)

	g.Release()
	g.Release()

	assert.Equal(t, 1, m.IdleSessions(KindAsync))
}

func TestManager_FlushAll(t *testing.T) {
	s, m := testManager(t, Options{MaxIdle: 2})
	s.Set("some-key", "some-value")

	err := m.FlushAll(context.Background())

	require.NoError(t, err)
	assert.False(t, s.Exists("some-key"))
}

func TestManager_IdleSweeper(t *testing.T) {
	_, m := testManager(t, Options{MaxIdle: 4, IdleTimeout: 10 * time.Millisecond})
	ctx := context.Background()

	g, err := m.Async(ctx)
	require.NoError(t, err)
	g.Release()
	require.Equal(t, 1, m.IdleSessions(KindAsync))

	assert.Eventually(t, func() bool {
		return m.IdleSessions(KindAsync) == 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestManager_IdleSessionsUnknownKind(t *testing.T) {
	_, m := testManager(t, Options{MaxIdle: 2})

	assert.Equal(t, 0, m.IdleSessions("bogus"))
}

func TestManager_CloseIsIdempotent(t *testing.T) {
	_, m := testManager(t, Options{MaxIdle: 2, IdleTimeout: time.Minute})

	require.NoError(t, m.Close())
	assert.NotPanics(t, func() { _ = m.Close() })
}
