// Package protocol defines the wire format spoken over the whiteboard
// WebSocket: a type-discriminated envelope with one payload struct per
// command and event. The router switches exhaustively on the command
// constants, so adding a variant means adding it here first.
package protocol

import (
	"encoding/json"
	"errors"
)

// Commands a client may send.
const (
	CmdJoin             = "join"
	CmdLeave            = "leave"
	CmdCursorMove       = "cursor-move"
	CmdAddIdea          = "add-idea"
	CmdDeleteIdea       = "delete-idea"
	CmdUpdateIdea       = "update-idea"
	CmdAddConnection    = "add-connection"
	CmdRemoveConnection = "remove-connection"
	CmdVote             = "vote"
)

// Events the server emits.
const (
	EventSessionsList      = "sessions-list"
	EventSessionState      = "session-state"
	EventUserJoined        = "user-joined"
	EventUserLeft          = "user-left"
	EventCursorMove        = "cursor-move"
	EventIdeaAdded         = "idea-added"
	EventIdeaDeleted       = "idea-deleted"
	EventIdeaUpdated       = "idea-updated"
	EventConnectionAdded   = "connection-added"
	EventConnectionRemoved = "connection-removed"
	EventIdeaVoted         = "idea-voted"
	EventError             = "error"
)

var (
	ErrMalformedFrame = errors.New("malformed frame: not a valid message envelope")
	ErrMissingType    = errors.New("message envelope missing type")
	ErrBadPayload     = errors.New("payload does not match message type")
)

// Envelope is the tagged union carried in every text frame, in both
// directions. Payload shape depends on Type.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Decode parses an inbound frame into an envelope. It validates only the
// envelope shape; payload decoding happens per command type.
func Decode(frame []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, ErrMalformedFrame
	}
	if env.Type == "" {
		return nil, ErrMissingType
	}
	return &env, nil
}

// Bind unmarshals the envelope payload into a command payload struct.
func (e *Envelope) Bind(v any) error {
	if len(e.Payload) == 0 {
		return ErrBadPayload
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return ErrBadPayload
	}
	return nil
}
