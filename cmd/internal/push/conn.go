package push

import (
	"sync"
	"time"
)

// Conn is one registered push connection.
//
// Design notes:
// - done is closed exactly once, when the hub removes the connection.
// - The owning handler blocks on Done so it can return (and release the
//   transport) the moment the hub prunes the connection.
type Conn struct {
	userID   string
	sink     Sink
	openedAt time.Time

	done      chan struct{}
	closeOnce sync.Once
}

func newConn(userID string, sink Sink, openedAt time.Time) *Conn {
	return &Conn{
		userID:   userID,
		sink:     sink,
		openedAt: openedAt,
		done:     make(chan struct{}),
	}
}

// UserID returns the owning principal.
func (c *Conn) UserID() string { return c.userID }

// OpenedAt returns when the connection was registered.
func (c *Conn) OpenedAt() time.Time { return c.openedAt }

// Done is closed when the connection has been removed from the hub.
func (c *Conn) Done() <-chan struct{} {
	if c == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.done
}

// markClosed signals the owning handler. Idempotent.
func (c *Conn) markClosed() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() { close(c.done) })
}
