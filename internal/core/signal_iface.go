package core

import "errors"

// Frame is a raw encoded message.
type Frame []byte

// ConnectionID identifies one live transport. It is never reused.
type ConnectionID string

var (
	ErrBackpressure     = errors.New("backpressure")
	ErrConnectionClosed = errors.New("connection closed")
)

// WebSocket close codes used by this module.
const (
	CloseNormal          = 1000
	ClosePolicyViolation = 1008
)

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	// TrySend queues f without blocking.
	TrySend(Frame) error
	Close()
	// CloseWithCode sends a close frame carrying code and reason, then closes.
	CloseWithCode(code int, reason string)
}

// PublishResult reports delivery stats/backpressure to the caller.
type PublishResult struct {
	SentTo  int
	Dropped []ConnectionID
}
