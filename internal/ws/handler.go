package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/budprat/PromptAlchemy/pkg/interfaces"
	"github.com/budprat/PromptAlchemy/pkg/protocol"
)

// CommandSink is where inbound frames and disconnects go; satisfied by the
// hub, mocked in tests.
type CommandSink interface {
	Dispatch(conn interfaces.Conn, frame []byte) error
	Disconnect(conn interfaces.Conn) error
}

// Options hold the transport tunables the handler and its connections use.
type Options struct {
	PingInterval time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	SendBuffer   int
}

var upgrader = websocket.Upgrader{
	// Origin checking is an auth concern and out of scope here; deployments
	// front this with their own origin policy.
	CheckOrigin:      func(r *http.Request) bool { return true },
	HandshakeTimeout: 10 * time.Second,
}

// Handler upgrades HTTP requests on the whiteboard path and runs one read
// pump per connection. All protocol interpretation happens downstream in the
// hub and router; the handler only moves frames.
type Handler struct {
	store  interfaces.SessionStore
	sink   CommandSink
	opts   Options
	logger *zap.Logger
}

// NewHandler wires the WebSocket entry point.
func NewHandler(store interfaces.SessionStore, sink CommandSink, opts Options, logger *zap.Logger) *Handler {
	return &Handler{store: store, sink: sink, opts: opts, logger: logger}
}

// HandleWhiteboard serves GET /ws/whiteboard. Immediately after the upgrade,
// before any join, the server pushes a sessions-list event so the client can
// populate its session picker without a separate request.
func (h *Handler) HandleWhiteboard(w http.ResponseWriter, r *http.Request) {
	socket, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := NewConnection(socket, h.opts.SendBuffer, h.opts.WriteTimeout)

	if err := conn.SendEvent(protocol.SessionsList(h.store.List())); err != nil {
		h.logger.Warn("failed to push sessions list", zap.Error(err))
		_ = conn.Close()
		return
	}

	go h.readPump(conn)
}

// readPump reads frames until the peer goes away, forwarding text frames to
// the hub. Heartbeat is a read deadline refreshed by pongs, with pings on a
// ticker from a side goroutine.
func (h *Handler) readPump(conn *Connection) {
	defer func() {
		_ = h.sink.Disconnect(conn)
		_ = conn.Close()
	}()

	if err := conn.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout)); err != nil {
		h.logger.Warn("failed to set read deadline", zap.Error(err))
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.opts.ReadTimeout))
	})

	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ticker.C:
				deadline := time.Now().Add(h.opts.WriteTimeout)
				if err := conn.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			case <-conn.ctx.Done():
				return
			}
		}
	}()

	for {
		messageType, frame, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		if messageType != websocket.TextMessage {
			continue
		}

		if err := h.sink.Dispatch(conn, frame); err != nil {
			// Queue pressure, not a protocol fault: tell the sender and
			// keep the connection open.
			_ = conn.SendEvent(protocol.ErrorEvent("server busy, command dropped"))
		}
	}
}
