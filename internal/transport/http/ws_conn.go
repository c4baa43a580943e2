package http

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/vovakirdan/wirechat-relay/internal/core"
)

var errClosedByServer = errors.New("closed by server")

// wsConn is the core.Conn side of one WebSocket: a bounded outbound queue
// drained by the handler's write loop.
type wsConn struct {
	out    chan []byte
	done   chan struct{}
	closed atomic.Bool

	mu     sync.Mutex
	once   sync.Once
	reason string
}

func newWSConn(queueSize int) *wsConn {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &wsConn{
		out:  make(chan []byte, queueSize),
		done: make(chan struct{}),
	}
}

// Send never blocks; a slow reader loses frames instead of stalling the hub.
func (c *wsConn) Send(frame []byte) error {
	if c.closed.Load() {
		return core.ErrConnClosed
	}
	select {
	case c.out <- frame:
		return nil
	default:
		return core.ErrSendQueueFull
	}
}

func (c *wsConn) Open() bool {
	return !c.closed.Load()
}

// Close asks the write loop to end the connection with reason.
func (c *wsConn) Close(reason string) error {
	if !c.closed.CompareAndSwap(false, true) {
		return core.ErrConnClosed
	}
	c.mu.Lock()
	c.reason = reason
	c.mu.Unlock()
	c.once.Do(func() { close(c.done) })
	return nil
}

// markClosed flips the state without requesting a close; used once the socket is already gone.
func (c *wsConn) markClosed() {
	c.closed.Store(true)
}

func (c *wsConn) closeReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}
