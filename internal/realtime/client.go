package realtime

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	ErrClientClosed = errors.New("subscriber closed")
	ErrBufferFull   = errors.New("subscriber outbound buffer full")
)

const DefaultOutboundBuffer = 16

// Client is a subscriber backed by a buffered outbound queue. Send never
// blocks; a transport goroutine drains Outbound onto the wire.
type Client struct {
	id       string
	Outbound chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func NewClient(kind string, buffer int) *Client {
	if buffer <= 0 {
		buffer = DefaultOutboundBuffer
	}
	return &Client{
		id:       kind + ":" + uuid.NewString(),
		Outbound: make(chan []byte, buffer),
		done:     make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

// Send enqueues msg for the transport. A full buffer means the peer is not
// keeping up and is reported as a failed send.
func (c *Client) Send(msg []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}
	select {
	case c.Outbound <- msg:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close marks the client disconnected. Safe to call more than once.
// Outbound is left open so a racing Send cannot panic.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) Done() <-chan struct{} { return c.done }
