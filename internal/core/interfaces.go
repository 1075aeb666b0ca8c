package core

import "errors"

// Frame is one encoded signaling message, ready for the wire.
type Frame []byte

// ConnID identifies a live connection for the lifetime of the process.
type ConnID string

var (
	ErrBackpressure = errors.New("backpressure: send buffer full")
	ErrConnClosed   = errors.New("connection closed")
)

// Conn abstracts a signaling transport endpoint.
// Owned by the adapter; the adapter must Close() it.
// TrySend must never block and Close must be safe to call repeatedly.
type Conn interface {
	ID() ConnID
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to the hub.
type PublishResult struct {
	SentTo  int
	Dropped []Conn
}
