package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publish sends payload on channel without waiting for subscribers.
// Current subscribers receive it; there is no buffering for anyone who
// subscribes later.
func (m *Manager) Publish(ctx context.Context, channel, payload string) error {
	g, err := m.Async(ctx)
	if err != nil {
		return err
	}
	defer g.Release()

	if err := g.Session().Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("%w: publish %q: %v", ErrStoreProtocol, channel, err)
	}
	return nil
}

// AwaitResponse subscribes to channel and waits for a single message,
// racing the receive against the timeout. Outcomes:
//
//   - a message arrives in time: its payload is returned
//   - the deadline passes first: ErrTimeout
//   - the subscription stream ends: ErrNoMessage
//   - anything else: ErrStoreProtocol
//
// On every path the session unsubscribes and goes back to its pool (or
// is closed, if its protocol state is no longer trustworthy) before
// AwaitResponse returns. A publish that happened before the subscribe
// completed is not replayed; callers who must avoid that race have to
// subscribe before signaling the publisher out-of-band.
func (m *Manager) AwaitResponse(ctx context.Context, channel string, timeout time.Duration) (string, error) {
	g, err := m.PubSub(ctx)
	if err != nil {
		return "", err
	}
	ps := g.Session()

	if err := ps.Subscribe(ctx, channel); err != nil {
		g.Discard()
		return "", fmt.Errorf("%w: subscribe %q: %v", ErrConnectFailed, channel, err)
	}

	payload, recvErr := receiveOne(ctx, ps, timeout)

	// Cleanup is unconditional, including on the timeout and error
	// branches. Unsubscribe, then settle the stream so no stale frame
	// can leak to the session's next borrower.
	if err := ps.Unsubscribe(context.WithoutCancel(ctx), channel); err != nil {
		g.Discard()
	} else if settleSubscription(ps) {
		g.Release()
	} else {
		g.Discard()
	}

	if recvErr != nil {
		return "", recvErr
	}
	return payload, nil
}

// receiveOne waits for the next message frame, skipping subscription
// confirmations and pongs.
func receiveOne(ctx context.Context, ps *redis.PubSub, timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		remain := time.Until(deadline)
		if remain <= 0 {
			return "", fmt.Errorf("%w: after %s", ErrTimeout, timeout)
		}

		frame, err := ps.ReceiveTimeout(ctx, remain)
		if err != nil {
			var nerr net.Error
			switch {
			case errors.As(err, &nerr) && nerr.Timeout():
				return "", fmt.Errorf("%w: after %s", ErrTimeout, timeout)
			case errors.Is(err, redis.ErrClosed), errors.Is(err, io.EOF):
				return "", ErrNoMessage
			default:
				return "", fmt.Errorf("%w: receive: %v", ErrStoreProtocol, err)
			}
		}

		switch f := frame.(type) {
		case *redis.Message:
			return f.Payload, nil
		case *redis.Subscription, *redis.Pong:
			// control frame, keep waiting
		}
	}
}

// settleSubscription reads frames until the unsubscribe confirmation so
// that a message delivered between the receive and the unsubscribe does
// not sit in the stream for the next checkout. Reports whether the
// session is safe to pool.
func settleSubscription(ps *redis.PubSub) bool {
	for i := 0; i < 8; i++ {
		frame, err := ps.ReceiveTimeout(context.Background(), 20*time.Millisecond)
		if err != nil {
			var nerr net.Error
			// Nothing pending: the confirmation was already consumed
			// by the receive loop as a control frame.
			return errors.As(err, &nerr) && nerr.Timeout()
		}
		if sub, ok := frame.(*redis.Subscription); ok && sub.Kind == "unsubscribe" {
			return true
		}
	}
	return false
}
