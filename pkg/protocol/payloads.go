package protocol

import "github.com/budprat/PromptAlchemy/pkg/types"

// JoinPayload opens membership in a session. SessionID may name a session
// that does not exist yet; the server lazily creates it, using SessionName
// (or the id) as the display name.
type JoinPayload struct {
	SessionID   string   `json:"sessionId"`
	SessionName string   `json:"sessionName,omitempty"`
	User        JoinUser `json:"user"`
}

// JoinUser is the client's self-description at join time.
type JoinUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// CursorMovePayload carries a pointer position in board coordinates.
type CursorMovePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// AddIdeaPayload creates an idea node. ID is optional; the server generates
// one when absent. Any client-sent connections are ignored - links are made
// through add-connection.
type AddIdeaPayload struct {
	ID    string  `json:"id,omitempty"`
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color,omitempty"`
}

// DeleteIdeaPayload removes an idea by id.
type DeleteIdeaPayload struct {
	IdeaID string `json:"ideaId"`
}

// UpdateIdeaPayload shallow-merges fields into an idea.
type UpdateIdeaPayload struct {
	IdeaID string          `json:"ideaId"`
	Patch  types.IdeaPatch `json:"patch"`
}

// ConnectionPayload addresses a symmetric edge by its unordered endpoint
// pair; used by both add-connection and remove-connection.
type ConnectionPayload struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}

// VotePayload increments an idea's vote count.
type VotePayload struct {
	IdeaID string `json:"ideaId"`
}
