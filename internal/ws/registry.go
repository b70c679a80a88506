package ws

import (
	"sync"

	"github.com/budprat/PromptAlchemy/pkg/interfaces"
)

type member struct {
	userID    string
	sessionID string
}

// Registry tracks which open connection belongs to which (user, session)
// pair. Lookup by connection handle is O(1) for disconnect cleanup, and a
// session's connections iterate directly for broadcast fan-out. A connection
// holds at most one membership at a time.
type Registry struct {
	mu        sync.RWMutex
	byConn    map[interfaces.Conn]member
	bySession map[string]map[string]interfaces.Conn // sessionID -> userID -> conn
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		byConn:    make(map[interfaces.Conn]member),
		bySession: make(map[string]map[string]interfaces.Conn),
	}
}

// Register binds a connection to a (user, session) pair. If the same user
// already holds a connection in that session (a reconnect racing its own
// cleanup), the stale connection is displaced and closed asynchronously so
// registration never deadlocks on socket teardown.
func (r *Registry) Register(conn interfaces.Conn, userID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, exists := r.bySession[sessionID]; exists {
		if stale, exists := members[userID]; exists && stale != conn {
			delete(r.byConn, stale)
			go func() { _ = stale.Close() }()
		}
	}

	if r.bySession[sessionID] == nil {
		r.bySession[sessionID] = make(map[string]interfaces.Conn)
	}
	r.bySession[sessionID][userID] = conn
	r.byConn[conn] = member{userID: userID, sessionID: sessionID}
}

// UnregisterByConnection removes a connection's membership and reports the
// pair it held. Idempotent: unregistering an unknown connection is a no-op.
func (r *Registry) UnregisterByConnection(conn interfaces.Conn) (string, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.byConn[conn]
	if !exists {
		return "", "", false
	}
	delete(r.byConn, conn)

	if members, ok := r.bySession[m.sessionID]; ok {
		// Only drop the session entry if it still points at this
		// connection; a reconnect may have displaced it already.
		if members[m.userID] == conn {
			delete(members, m.userID)
		}
		if len(members) == 0 {
			delete(r.bySession, m.sessionID)
		}
	}

	return m.userID, m.sessionID, true
}

// LookupByConnection reports the (user, session) pair a connection holds.
func (r *Registry) LookupByConnection(conn interfaces.Conn) (string, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, exists := r.byConn[conn]
	return m.userID, m.sessionID, exists
}

// SessionConnections lists the connections registered to a session, skipping
// users named in exclude.
func (r *Registry) SessionConnections(sessionID string, exclude ...string) []interfaces.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members, exists := r.bySession[sessionID]
	if !exists {
		return nil
	}

	var excluded map[string]struct{}
	if len(exclude) > 0 {
		excluded = make(map[string]struct{}, len(exclude))
		for _, id := range exclude {
			excluded[id] = struct{}{}
		}
	}

	conns := make([]interfaces.Conn, 0, len(members))
	for userID, conn := range members {
		if _, skip := excluded[userID]; skip {
			continue
		}
		conns = append(conns, conn)
	}
	return conns
}

// Stats reports registry counters for the health surface.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]int{
		"total_connections": len(r.byConn),
		"active_sessions":   len(r.bySession),
	}
}
