// Package hub provides the single logical thread of mutation: every inbound
// command and disconnect is queued here and processed by one goroutine, so
// commands against the same session never interleave and no cross-field
// mutation (delete-idea touches every other idea's connection list) is ever
// observed half-done.
package hub

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/budprat/PromptAlchemy/pkg/interfaces"
)

// Handler is the command processor driven by the hub loop; satisfied by the
// router.
type Handler interface {
	HandleCommand(conn interfaces.Conn, frame []byte)
	HandleDisconnect(conn interfaces.Conn)
}

type command struct {
	conn  interfaces.Conn
	frame []byte
}

// Hub queues frames from all connections into one processing loop. Buffers
// absorb command bursts; a full queue fails the enqueue rather than blocking
// a read pump.
type Hub struct {
	commands    chan command
	disconnects chan interfaces.Conn
	shutdown    chan struct{}

	handler Handler
	logger  *zap.Logger

	mu      sync.RWMutex
	running bool
}

// NewHub creates a hub for the given command handler.
func NewHub(handler Handler, logger *zap.Logger) *Hub {
	return &Hub{
		commands:    make(chan command, 1024),
		disconnects: make(chan interfaces.Conn, 128),
		shutdown:    make(chan struct{}),
		handler:     handler,
		logger:      logger,
	}
}

// Start launches the processing goroutine.
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return ErrHubAlreadyRunning
	}
	h.running = true
	h.mu.Unlock()

	h.logger.Info("starting whiteboard hub")
	go h.run(ctx)
	return nil
}

// Stop shuts the processing loop down.
func (h *Hub) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		return ErrHubNotRunning
	}
	h.running = false

	select {
	case <-h.shutdown:
	default:
		close(h.shutdown)
	}
	return nil
}

// Dispatch queues one inbound frame for processing.
func (h *Hub) Dispatch(conn interfaces.Conn, frame []byte) error {
	h.mu.RLock()
	if !h.running {
		h.mu.RUnlock()
		return ErrHubNotRunning
	}
	h.mu.RUnlock()

	select {
	case h.commands <- command{conn: conn, frame: frame}:
		return nil
	default:
		return ErrCommandQueueFull
	}
}

// Disconnect queues a connection's cleanup.
func (h *Hub) Disconnect(conn interfaces.Conn) error {
	h.mu.RLock()
	if !h.running {
		h.mu.RUnlock()
		return ErrHubNotRunning
	}
	h.mu.RUnlock()

	select {
	case h.disconnects <- conn:
		return nil
	default:
		return ErrDisconnectQueueFull
	}
}

func (h *Hub) run(ctx context.Context) {
	defer h.logger.Info("whiteboard hub stopped")

	for {
		select {
		case cmd := <-h.commands:
			h.handler.HandleCommand(cmd.conn, cmd.frame)

		case conn := <-h.disconnects:
			h.handler.HandleDisconnect(conn)

		case <-h.shutdown:
			return

		case <-ctx.Done():
			return
		}
	}
}
