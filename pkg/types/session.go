package types

import (
	"time"
)

// IdeaPatch carries the fields of an update-idea command. Nil fields are
// left untouched (shallow merge, last write wins).
type IdeaPatch struct {
	Text     *string  `json:"text,omitempty"`
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Color    *string  `json:"color,omitempty"`
	Selected *bool    `json:"selected,omitempty"`
}

// UpsertUser adds a user to the session or refreshes an existing record,
// marking it active. A user keeps its identity across reconnects when the
// client supplies the same id. A missing color is assigned from the palette.
// Returns a copy of the stored record for broadcasting.
func (s *Session) UpsertUser(id, name, color string) *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.Users[id]
	if !exists {
		u = &User{ID: id}
		if color == "" {
			color = userColorPalette[len(s.Users)%len(userColorPalette)]
		}
		s.Users[id] = u
	}
	if name != "" {
		u.Name = name
	}
	if color != "" {
		u.Color = color
	}
	u.Active = true
	u.LastActive = time.Now()
	s.LastActive = u.LastActive

	return copyUser(u)
}

// RemoveUser removes a user from the session. Removing an unknown user
// reports ErrUserNotFound so callers can treat it as a no-op.
func (s *Session) RemoveUser(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.Users[id]; !exists {
		return ErrUserNotFound
	}
	delete(s.Users, id)
	s.LastActive = time.Now()
	return nil
}

// MoveCursor updates a user's last-known cursor position.
func (s *Session) MoveCursor(userID string, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, exists := s.Users[userID]
	if !exists {
		return ErrUserNotFound
	}
	u.Cursor = &CursorPosition{X: x, Y: y}
	u.LastActive = time.Now()
	s.LastActive = u.LastActive
	return nil
}

// AddIdea appends a new idea to the board. Connections always start empty
// regardless of what the client sent; links are made explicitly through
// add-connection. A duplicate id is rejected rather than overwritten.
// Returns a copy of the stored idea for broadcasting.
func (s *Session) AddIdea(idea *Idea) (*Idea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.Ideas[idea.ID]; exists {
		return nil, ErrIdeaExists
	}

	stored := &Idea{
		ID:          idea.ID,
		Text:        idea.Text,
		X:           idea.X,
		Y:           idea.Y,
		Color:       idea.Color,
		Connections: []string{},
		CreatedBy:   idea.CreatedBy,
		CreatedAt:   time.Now(),
	}
	s.Ideas[stored.ID] = stored
	s.LastActive = stored.CreatedAt

	return copyIdea(stored), nil
}

// DeleteIdea removes an idea and strips its id from every other idea's
// connection list, so no dangling reference survives the delete.
func (s *Session) DeleteIdea(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.Ideas[id]; !exists {
		return ErrIdeaNotFound
	}
	delete(s.Ideas, id)
	for _, other := range s.Ideas {
		other.Connections = removeID(other.Connections, id)
	}
	s.LastActive = time.Now()
	return nil
}

// UpdateIdea shallow-merges the provided fields into an existing idea and
// returns a copy of the merged record.
func (s *Session) UpdateIdea(id string, patch IdeaPatch) (*Idea, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idea, exists := s.Ideas[id]
	if !exists {
		return nil, ErrIdeaNotFound
	}
	if patch.Text != nil {
		idea.Text = *patch.Text
	}
	if patch.X != nil {
		idea.X = *patch.X
	}
	if patch.Y != nil {
		idea.Y = *patch.Y
	}
	if patch.Color != nil {
		idea.Color = *patch.Color
	}
	if patch.Selected != nil {
		idea.Selected = *patch.Selected
	}
	s.LastActive = time.Now()

	return copyIdea(idea), nil
}

// AddConnection links two ideas symmetrically. The add is idempotent: an
// already-present link is left as a single entry. Self-connections and links
// to unknown ideas are rejected so the caller can drop the command.
func (s *Session) AddConnection(sourceID, targetID string) error {
	if sourceID == targetID {
		return ErrSelfConnection
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	source, ok := s.Ideas[sourceID]
	if !ok {
		return ErrIdeaNotFound
	}
	target, ok := s.Ideas[targetID]
	if !ok {
		return ErrIdeaNotFound
	}

	source.Connections = appendID(source.Connections, targetID)
	target.Connections = appendID(target.Connections, sourceID)
	s.LastActive = time.Now()
	return nil
}

// RemoveConnection removes the symmetric link between two ideas. Removing a
// link that does not exist is a no-op; removal only fails when an endpoint
// idea is missing.
func (s *Session) RemoveConnection(sourceID, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	source, ok := s.Ideas[sourceID]
	if !ok {
		return ErrIdeaNotFound
	}
	target, ok := s.Ideas[targetID]
	if !ok {
		return ErrIdeaNotFound
	}

	source.Connections = removeID(source.Connections, targetID)
	target.Connections = removeID(target.Connections, sourceID)
	s.LastActive = time.Now()
	return nil
}

// Vote increments an idea's vote counter by exactly one. Votes are not
// de-duplicated per user. Returns the resulting count.
func (s *Session) Vote(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idea, exists := s.Ideas[id]
	if !exists {
		return 0, ErrIdeaNotFound
	}
	idea.Votes++
	s.LastActive = time.Now()
	return idea.Votes, nil
}

// Snapshot returns a deep copy of the session for serialization.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := SessionSnapshot{
		ID:         s.ID,
		Name:       s.Name,
		Ideas:      make(map[string]*Idea, len(s.Ideas)),
		Users:      make(map[string]*User, len(s.Users)),
		CreatedAt:  s.CreatedAt,
		LastActive: s.LastActive,
	}
	for id, idea := range s.Ideas {
		snap.Ideas[id] = copyIdea(idea)
	}
	for id, u := range s.Users {
		snap.Users[id] = copyUser(u)
	}
	return snap
}

// Summary computes the directory projection from live state.
func (s *Session) Summary() SessionSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SessionSummary{
		ID:         s.ID,
		Name:       s.Name,
		UserCount:  len(s.Users),
		IdeaCount:  len(s.Ideas),
		CreatedAt:  s.CreatedAt,
		LastActive: s.LastActive,
	}
}

// UserCount reports the number of users currently in the session.
func (s *Session) UserCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Users)
}

func copyIdea(idea *Idea) *Idea {
	c := *idea
	c.Connections = append([]string{}, idea.Connections...)
	return &c
}

func copyUser(u *User) *User {
	c := *u
	if u.Cursor != nil {
		cur := *u.Cursor
		c.Cursor = &cur
	}
	return &c
}

func appendID(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func removeID(ids []string, id string) []string {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
