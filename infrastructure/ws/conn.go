package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"chat-relay/errors"

	"github.com/gorilla/websocket"
)

const writeDeadline = 5 * time.Second

// Conn wraps a websocket with a buffered outbound queue. All writes go
// through writePump; TrySend never blocks and reports backpressure.
// The send channel is never closed: sinks holding this connection can
// still be reached through registry snapshots taken before teardown,
// so TrySend fails fast behind a closed flag instead.
type Conn struct {
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func NewConn(conn *websocket.Conn, sendBuffer int) *Conn {
	return &Conn{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

func (c *Conn) TrySend(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.ErrConnClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		return errors.ErrBackpressure
	}
}

// Close tears the socket down. Safe to call more than once and safe
// against concurrent TrySend callers.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	_ = c.conn.Close()
}

func (c *Conn) writePump(ctx context.Context, log *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			log.Debug("writePump ctx done")
			return
		case data := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				log.Error("writePump set deadline", "error", err)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error("writePump write error", "error", err)
				return
			}
		}
	}
}

// readPump feeds inbound frames to the session until the socket dies,
// then runs the session's disconnect path exactly once.
func (c *Conn) readPump(ctx context.Context, log *slog.Logger, session *Session) {
	defer func() {
		log.Debug("readPump closing")
		session.Disconnect()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug("readPump read error", "error", err)
				return
			}
			session.Handle(ctx, data)
		}
	}
}
