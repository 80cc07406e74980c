package core

import "sync"

// DefaultQueueSize bounds the per-connection outbound queue. A slow reader
// overflows its own queue and loses events; it never blocks a sender.
const DefaultQueueSize = 32

// Client is one live authenticated connection as seen by the core layer.
type Client struct {
	ConnID   string
	Identity Identity

	events chan *Event

	mu     sync.Mutex
	closed bool
}

// NewClient constructs a client with a bounded event queue. queueSize <= 0
// falls back to DefaultQueueSize.
func NewClient(connID string, identity Identity, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Client{
		ConnID:   connID,
		Identity: identity,
		events:   make(chan *Event, queueSize),
	}
}

// Events is the outbound queue drained by the connection's write loop.
func (c *Client) Events() <-chan *Event {
	return c.events
}

// TrySend enqueues an event without blocking. Returns false if the client is
// closed or its queue is full; the event is dropped (drop-newest policy).
func (c *Client) TrySend(event *Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.events <- event:
		return true
	default:
		return false
	}
}

// Close stops further deliveries. Idempotent; safe to call from the
// disconnect path and the registry concurrently.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}
