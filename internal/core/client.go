package core

import (
	"encoding/json"
	"errors"
)

var (
	// ErrConnClosed is returned by Conn.Send once the connection left the OPEN state.
	ErrConnClosed = errors.New("connection closed")
	// ErrSendQueueFull is returned by Conn.Send when the peer is not draining its queue.
	ErrSendQueueFull = errors.New("send queue full")
)

// Conn is one client connection as seen by the core layer. Implementations
// must make Send non-blocking: the hub calls it while holding its lock.
type Conn interface {
	// Send queues a single encoded envelope for delivery.
	Send(frame []byte) error
	// Open reports whether the connection can still accept frames.
	Open() bool
	// Close terminates the connection with a human-readable reason.
	Close(reason string) error
}

// ClientRecord is an authenticated client as stored in the registry.
type ClientRecord struct {
	ID        string
	Name      string
	PublicKey json.RawMessage
	Conn      Conn
}
