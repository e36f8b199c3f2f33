package store

import "errors"

var (
	// ErrConnectFailed is returned when a session could not be obtained from the store
	ErrConnectFailed = errors.New("could not obtain a session from the store")

	// ErrTimeout is returned when a rendezvous wait exceeds its deadline
	ErrTimeout = errors.New("timed out waiting for a message")

	// ErrNoMessage is returned when a subscription stream ends without delivering a message
	ErrNoMessage = errors.New("subscription ended without a message")

	// ErrStoreProtocol is returned when the store rejects or fails a command
	ErrStoreProtocol = errors.New("store rejected command")
)
