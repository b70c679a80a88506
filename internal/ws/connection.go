package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/budprat/PromptAlchemy/pkg/protocol"
)

// Connection wraps a websocket.Conn behind a single writer goroutine, which
// serializes frames so broadcasts from the hub and direct replies never race
// on the socket. The wrapper is a dumb pipe: who the connection belongs to
// is the registry's business, not the socket's.
type Connection struct {
	conn         *websocket.Conn
	writeCh      chan []byte
	writeTimeout time.Duration

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection starts the writer goroutine for an upgraded socket.
// sendBuffer bounds how far a slow peer may fall behind before sends to it
// start failing.
func NewConnection(conn *websocket.Conn, sendBuffer int, writeTimeout time.Duration) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		conn:         conn,
		writeCh:      make(chan []byte, sendBuffer),
		writeTimeout: writeTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}

	go c.writeLoop()
	return c
}

func (c *Connection) writeLoop() {
	for {
		select {
		case frame := <-c.writeCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// Send enqueues one frame for FIFO delivery. It never blocks: a full buffer
// means the peer is unreachable for broadcast purposes and the send fails
// instead of stalling the caller.
func (c *Connection) Send(frame []byte) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	select {
	case c.writeCh <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// SendEvent serializes and enqueues a single event addressed to this
// connection only.
func (c *Connection) SendEvent(event protocol.Event) error {
	frame, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.Send(frame)
}

// Close tears the connection down. Safe to call repeatedly.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}
