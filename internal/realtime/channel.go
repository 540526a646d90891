package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Message is the wire frame pushed to a connected client.
type Message struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Channel is one live real-time connection. It starts connected with no
// user association, may join exactly one user, and is terminal once closed.
type Channel struct {
	id       string
	outbound chan Message

	mu     sync.Mutex
	closed bool
}

// NewChannel creates a channel with the given outbound buffer size.
func NewChannel(bufSize int) *Channel {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Channel{
		id:       uuid.NewString(),
		outbound: make(chan Message, bufSize),
	}
}

func (c *Channel) ID() string {
	return c.id
}

// Outbound exposes the stream the transport writer drains.
func (c *Channel) Outbound() <-chan Message {
	return c.outbound
}

// Push queues a message without blocking. Messages to a closed channel or a
// full buffer are dropped; delivery is best-effort by contract.
func (c *Channel) Push(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.outbound <- msg:
		return true
	default:
		return false
	}
}

// Close transitions the channel to its terminal state. Subsequent pushes
// are no-ops.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.outbound)
}
