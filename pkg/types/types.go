package types

import (
	"sync"
	"time"
)

// Palette used when a joining user does not pick a color. Indexed by the
// order in which users first appear in a session.
var userColorPalette = []string{
	"#f94144", "#f3722c", "#f8961e", "#f9c74f",
	"#90be6d", "#43aa8b", "#577590", "#9b5de5",
}

// CursorPosition is a point in board space.
type CursorPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// User is a session-scoped presence record. The same person joining two
// sessions is two independent User records.
type User struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Color      string          `json:"color"`
	Cursor     *CursorPosition `json:"cursor,omitempty"`
	Active     bool            `json:"active"`
	LastActive time.Time       `json:"lastActive"`
}

// Idea is a positioned, votable content card within a session.
// Connections holds the ids of linked ideas; the link is symmetric, so if A
// lists B then B lists A. The mutation operations on Session maintain that
// invariant together with the no-dangling-reference rule.
type Idea struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Color       string    `json:"color"`
	Connections []string  `json:"connections"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	Votes       int       `json:"votes"`
	// Selected is UI-local convenience state carried through update-idea;
	// it is not authoritative across clients.
	Selected bool `json:"selected"`
}

// Session is a named collaborative workspace. It is owned by the session
// store and mutated only through the operation methods in session.go, which
// the hub goroutine invokes one command at a time. The mutex exists because
// the directory API reads snapshots and summaries concurrently with mutation.
type Session struct {
	mu sync.RWMutex

	ID         string
	Name       string
	Ideas      map[string]*Idea
	Users      map[string]*User
	CreatedAt  time.Time
	LastActive time.Time
}

// SessionSummary is the directory projection of a session. It is always
// computed from the live session, never stored.
type SessionSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UserCount  int       `json:"userCount"`
	IdeaCount  int       `json:"ideaCount"`
	CreatedAt  time.Time `json:"createdAt"`
	LastActive time.Time `json:"lastActive"`
}

// SessionSnapshot is the full wire representation of a session, sent to a
// client on join. Maps are deep-copied so the snapshot stays stable after the
// session lock is released.
type SessionSnapshot struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Ideas      map[string]*Idea `json:"ideas"`
	Users      map[string]*User `json:"users"`
	CreatedAt  time.Time        `json:"createdAt"`
	LastActive time.Time        `json:"lastActive"`
}

// NewSession creates an empty session with the given id and name.
func NewSession(id, name string) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Name:       name,
		Ideas:      make(map[string]*Idea),
		Users:      make(map[string]*User),
		CreatedAt:  now,
		LastActive: now,
	}
}

// RestoredSession rebuilds a session from catalog record fields. Board
// content is not persisted, so a restored session starts empty.
func RestoredSession(id, name string, createdAt, lastActive time.Time) *Session {
	s := NewSession(id, name)
	s.CreatedAt = createdAt
	s.LastActive = lastActive
	return s
}
