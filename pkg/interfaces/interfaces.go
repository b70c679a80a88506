// Package interfaces holds the contracts between the whiteboard's
// components: transport, registry, store, dispatcher and catalog. Pure
// abstractions with no implementation details, so every component can be
// exercised against mocks.
package interfaces

import (
	"context"

	"github.com/budprat/PromptAlchemy/pkg/protocol"
	"github.com/budprat/PromptAlchemy/pkg/types"
)

// Conn is one client's outbound half of the bidirectional channel.
// Implementations must be safe for concurrent use and must not block the
// caller on a slow peer: a send either enqueues promptly or fails.
type Conn interface {
	// Send enqueues one serialized frame for delivery in FIFO order.
	Send(frame []byte) error

	// SendEvent serializes and enqueues a single event; used for replies
	// addressed to one connection rather than a broadcast set.
	SendEvent(event protocol.Event) error

	// Close tears down the connection; safe to call more than once.
	Close() error
}

// SessionStore owns the id -> session mapping. Sessions are never
// implicitly deleted.
type SessionStore interface {
	// Get returns the session with the given id, if present.
	Get(sessionID string) (*types.Session, bool)

	// GetOrCreate returns the existing session or lazily creates one
	// preserving the caller-chosen id; used on the join path.
	GetOrCreate(sessionID, defaultName string) *types.Session

	// Create makes a session with a fresh server-generated id; used by the
	// directory create path.
	Create(name string) *types.Session

	// List returns summaries of every session, reflecting live counts.
	List() []types.SessionSummary

	// Touch records mutation activity for catalog bookkeeping.
	Touch(sessionID string)
}

// Registry tracks which connection belongs to which (user, session) pair.
// A connection maps to at most one pair at a time.
type Registry interface {
	Register(conn Conn, userID, sessionID string)

	// UnregisterByConnection removes the connection's membership and
	// returns the pair it held, if any. Idempotent.
	UnregisterByConnection(conn Conn) (userID, sessionID string, ok bool)

	// LookupByConnection reports the pair a connection holds without
	// changing it.
	LookupByConnection(conn Conn) (userID, sessionID string, ok bool)

	// SessionConnections lists the connections registered to a session,
	// skipping any whose user id appears in exclude.
	SessionConnections(sessionID string, exclude ...string) []Conn
}

// Dispatcher fans an event out to a session's connections, best effort.
type Dispatcher interface {
	Broadcast(sessionID string, event protocol.Event, excludeUserIDs ...string)
}

// Catalog persists session records. Only create/read/list semantics: board
// content is never stored, so restored sessions come back as empty boards.
type Catalog interface {
	SaveSession(ctx context.Context, summary types.SessionSummary) error
	TouchSession(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context) ([]types.SessionSummary, error)
	HealthCheck(ctx context.Context) error
	Close() error
}
