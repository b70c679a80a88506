// Package broadcast delivers one event to the set of connections registered
// to a session. Delivery is best effort: no retry, no acknowledgment, no
// cross-recipient ordering promise. Per-connection order is preserved by the
// connections' own FIFO send queues.
package broadcast

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/budprat/PromptAlchemy/pkg/interfaces"
	"github.com/budprat/PromptAlchemy/pkg/protocol"
)

// Dispatcher implements interfaces.Dispatcher against the connection
// registry.
type Dispatcher struct {
	registry interfaces.Registry
	logger   *zap.Logger
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry interfaces.Registry, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger}
}

// Broadcast serializes the event once and pushes it to every connection in
// the session except the excluded users. A failed send (closed socket, full
// buffer) is logged and skipped; it never aborts delivery to the rest and
// never surfaces to the command's originator.
func (d *Dispatcher) Broadcast(sessionID string, event protocol.Event, excludeUserIDs ...string) {
	conns := d.registry.SessionConnections(sessionID, excludeUserIDs...)
	if len(conns) == 0 {
		return
	}

	frame, err := json.Marshal(event)
	if err != nil {
		d.logger.Error("failed to serialize event",
			zap.String("session", sessionID),
			zap.String("type", event.Type),
			zap.Error(err))
		return
	}

	for _, conn := range conns {
		if err := conn.Send(frame); err != nil {
			d.logger.Warn("recipient unreachable",
				zap.String("session", sessionID),
				zap.String("type", event.Type),
				zap.Error(err))
		}
	}
}
