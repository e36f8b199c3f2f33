package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/harun/redtrace/internal/observability"
)

// Session kind labels used in logs and metrics.
const (
	KindPlain  = "plain"
	KindAsync  = "async"
	KindPubSub = "pubsub"
)

const defaultMaxIdle = 8

// Options configures a Manager.
type Options struct {
	// MaxIdle caps the number of idle sessions cached per kind.
	// Zero means the default (8); negative disables caching entirely.
	MaxIdle int

	// IdleTimeout closes pooled sessions idle longer than this.
	// Zero disables the sweeper.
	IdleTimeout time.Duration

	Logger zerolog.Logger
}

// Manager owns the store client and three pools of idle sessions, one
// per kind. Checkout pops an idle session or dials a new one; the
// return path pushes the session back or closes it when the pool is
// full. Dialing always happens outside the pool locks.
type Manager struct {
	client *redis.Client
	log    zerolog.Logger

	plain  *Pool[*redis.Conn]
	async  *Pool[*redis.Conn]
	pubsub *Pool[*redis.PubSub]

	stopSweep chan struct{}
	closeOnce sync.Once
}

// NewManager connects to the store at redisURL and verifies the
// connection with a ping. Dial failures surface as ErrConnectFailed.
func NewManager(ctx context.Context, redisURL string, opts Options) (*Manager, error) {
	observability.EnsureRegistered()

	ropts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse url: %v", ErrConnectFailed, err)
	}

	client := redis.NewClient(ropts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	maxIdle := opts.MaxIdle
	if maxIdle == 0 {
		maxIdle = defaultMaxIdle
	}
	if maxIdle < 0 {
		maxIdle = 0
	}

	m := &Manager{
		client: client,
		log:    opts.Logger.With().Str("component", "store").Logger(),
		plain: NewPool(maxIdle, func(c *redis.Conn) {
			_ = c.Close()
			observability.SessionDiscarded(KindPlain)
		}),
		async: NewPool(maxIdle, func(c *redis.Conn) {
			_ = c.Close()
			observability.SessionDiscarded(KindAsync)
		}),
		pubsub: NewPool(maxIdle, func(ps *redis.PubSub) {
			_ = ps.Close()
			observability.SessionDiscarded(KindPubSub)
		}),
		stopSweep: make(chan struct{}),
	}

	if opts.IdleTimeout > 0 {
		go m.sweepLoop(opts.IdleTimeout)
	}

	return m, nil
}

// Plain checks out a dedicated session for synchronous call sites.
func (m *Manager) Plain(ctx context.Context) (*Guard[*redis.Conn], error) {
	return m.checkoutConn(ctx, m.plain, KindPlain)
}

// Async checks out a dedicated session for background work.
func (m *Manager) Async(ctx context.Context) (*Guard[*redis.Conn], error) {
	return m.checkoutConn(ctx, m.async, KindAsync)
}

// PubSub checks out a subscription session. The session carries no
// subscriptions while idle; callers subscribe and must unsubscribe
// before release.
func (m *Manager) PubSub(ctx context.Context) (*Guard[*redis.PubSub], error) {
	if id, ps, ok := m.pubsub.Get(); ok {
		observability.CheckoutHit(KindPubSub)
		observability.SetPoolIdle(KindPubSub, m.pubsub.Len())
		return m.guardPubSub(id, ps), nil
	}

	ps := m.client.Subscribe(ctx)
	id, _ := gonanoid.New()
	observability.CheckoutDial(KindPubSub)
	m.log.Debug().Str("kind", KindPubSub).Str("session_id", id).Msg("Dialed store session")
	return m.guardPubSub(id, ps), nil
}

func (m *Manager) checkoutConn(ctx context.Context, pool *Pool[*redis.Conn], kind string) (*Guard[*redis.Conn], error) {
	if id, conn, ok := pool.Get(); ok {
		observability.CheckoutHit(kind)
		observability.SetPoolIdle(kind, pool.Len())
		return m.guardConn(pool, kind, id, conn), nil
	}

	// Dial outside any lock; this may suspend on the network.
	conn := m.client.Conn()
	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	id, _ := gonanoid.New()
	observability.CheckoutDial(kind)
	m.log.Debug().Str("kind", kind).Str("session_id", id).Msg("Dialed store session")
	return m.guardConn(pool, kind, id, conn), nil
}

func (m *Manager) guardConn(pool *Pool[*redis.Conn], kind, id string, conn *redis.Conn) *Guard[*redis.Conn] {
	return &Guard[*redis.Conn]{
		id:      id,
		session: conn,
		putBack: func(id string, c *redis.Conn) {
			if !pool.Put(id, c) {
				m.log.Debug().Str("kind", kind).Str("session_id", id).Msg("Pool full, session closed")
			}
			observability.SetPoolIdle(kind, pool.Len())
		},
		discard: func(c *redis.Conn) {
			_ = c.Close()
			observability.SessionDiscarded(kind)
		},
	}
}

func (m *Manager) guardPubSub(id string, ps *redis.PubSub) *Guard[*redis.PubSub] {
	return &Guard[*redis.PubSub]{
		id:      id,
		session: ps,
		putBack: func(id string, ps *redis.PubSub) {
			if !m.pubsub.Put(id, ps) {
				m.log.Debug().Str("kind", KindPubSub).Str("session_id", id).Msg("Pool full, session closed")
			}
			observability.SetPoolIdle(KindPubSub, m.pubsub.Len())
		},
		discard: func(ps *redis.PubSub) {
			_ = ps.Close()
			observability.SessionDiscarded(KindPubSub)
		},
	}
}

// IdleSessions reports the number of idle sessions cached for a kind.
func (m *Manager) IdleSessions(kind string) int {
	switch kind {
	case KindPlain:
		return m.plain.Len()
	case KindAsync:
		return m.async.Len()
	case KindPubSub:
		return m.pubsub.Len()
	}
	return 0
}

// FlushAll wipes the entire store. Maintenance and test tooling only.
// It runs on a fresh session so it cannot be affected by pooled state.
func (m *Manager) FlushAll(ctx context.Context) error {
	conn := m.client.Conn()
	defer func() { _ = conn.Close() }()

	if err := conn.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("%w: flushdb: %v", ErrStoreProtocol, err)
	}
	return nil
}

// Close drains every pool and closes the underlying client. Repeated
// calls are no-ops.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.stopSweep)
		m.plain.Drain()
		m.async.Drain()
		m.pubsub.Drain()
		err = m.client.Close()
	})
	return err
}

func (m *Manager) sweepLoop(maxIdle time.Duration) {
	interval := maxIdle / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopSweep:
			return
		case <-ticker.C:
			n := m.plain.Sweep(maxIdle) + m.async.Sweep(maxIdle) + m.pubsub.Sweep(maxIdle)
			if n > 0 {
				m.log.Debug().Int("evicted", n).Msg("Idle sessions evicted")
			}
			observability.SetPoolIdle(KindPlain, m.plain.Len())
			observability.SetPoolIdle(KindAsync, m.async.Len())
			observability.SetPoolIdle(KindPubSub, m.pubsub.Len())
		}
	}
}
