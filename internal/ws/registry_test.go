package ws

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budprat/PromptAlchemy/pkg/protocol"
)

// stubConn is a minimal interfaces.Conn for registry tests.
type stubConn struct {
	mu     sync.Mutex
	closed bool
}

func (c *stubConn) Send(frame []byte) error              { return nil }
func (c *stubConn) SendEvent(event protocol.Event) error { return nil }

func (c *stubConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *stubConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	conn := &stubConn{}

	r.Register(conn, "u1", "s1")

	userID, sessionID, ok := r.LookupByConnection(conn)
	require.True(t, ok)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "s1", sessionID)
}

func TestUnregisterByConnection(t *testing.T) {
	r := NewRegistry()
	conn := &stubConn{}
	r.Register(conn, "u1", "s1")

	userID, sessionID, ok := r.UnregisterByConnection(conn)
	require.True(t, ok)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "s1", sessionID)

	// Idempotent.
	_, _, ok = r.UnregisterByConnection(conn)
	assert.False(t, ok)

	_, _, ok = r.LookupByConnection(conn)
	assert.False(t, ok)
	assert.Empty(t, r.SessionConnections("s1"))
}

func TestSessionConnectionsWithExclusions(t *testing.T) {
	r := NewRegistry()
	a, b, c := &stubConn{}, &stubConn{}, &stubConn{}
	r.Register(a, "u1", "s1")
	r.Register(b, "u2", "s1")
	r.Register(c, "u3", "s2")

	assert.Len(t, r.SessionConnections("s1"), 2)
	assert.Len(t, r.SessionConnections("s2"), 1)
	assert.Empty(t, r.SessionConnections("nope"))

	remaining := r.SessionConnections("s1", "u1")
	require.Len(t, remaining, 1)
	assert.Same(t, b, remaining[0].(*stubConn))

	assert.Empty(t, r.SessionConnections("s1", "u1", "u2"))
}

func TestReconnectDisplacesStaleConnection(t *testing.T) {
	r := NewRegistry()
	stale := &stubConn{}
	fresh := &stubConn{}

	r.Register(stale, "u1", "s1")
	r.Register(fresh, "u1", "s1")

	// The fresh connection owns the membership.
	conns := r.SessionConnections("s1")
	require.Len(t, conns, 1)
	assert.Same(t, fresh, conns[0].(*stubConn))

	_, _, ok := r.LookupByConnection(stale)
	assert.False(t, ok)

	require.Eventually(t, stale.isClosed, time.Second, 10*time.Millisecond,
		"displaced connection should be closed")

	// The stale connection's late cleanup must not evict the fresh one.
	_, _, ok = r.UnregisterByConnection(stale)
	assert.False(t, ok)
	assert.Len(t, r.SessionConnections("s1"), 1)
}

func TestStats(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Stats()["total_connections"])

	r.Register(&stubConn{}, "u1", "s1")
	r.Register(&stubConn{}, "u2", "s1")
	r.Register(&stubConn{}, "u3", "s2")

	stats := r.Stats()
	assert.Equal(t, 3, stats["total_connections"])
	assert.Equal(t, 2, stats["active_sessions"])
}
