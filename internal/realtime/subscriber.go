package realtime

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrBackpressure = errors.New("realtime: subscriber send buffer full")
	ErrClosed       = errors.New("realtime: subscriber closed")
)

// Subscriber is one live connection bound to a single session.
// Send must not block on the network.
type Subscriber interface {
	ID() string
	Send(ctx context.Context, data []byte) error
	Close() error
}

// Outbox is a bounded outbound buffer drained by a connection's write pump.
type Outbox struct {
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func NewOutbox(size int) *Outbox {
	return &Outbox{send: make(chan []byte, size)}
}

// TrySend enqueues data without blocking.
func (o *Outbox) TrySend(data []byte) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.closed {
		return ErrClosed
	}
	select {
	case o.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

// C is closed after Close once the buffer has been drained.
func (o *Outbox) C() <-chan []byte {
	return o.send
}

// Close reports whether this call closed the outbox.
func (o *Outbox) Close() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	o.closed = true
	close(o.send)
	return true
}
