package protocol

import "github.com/budprat/PromptAlchemy/pkg/types"

// Event is an outbound message before serialization. The dispatcher
// marshals an event exactly once per broadcast.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// CursorMoveEvent attributes a cursor position to the user who moved it.
type CursorMoveEvent struct {
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// IdeaVotedEvent reports the count after the increment so observers do not
// need to track vote deltas.
type IdeaVotedEvent struct {
	IdeaID string `json:"ideaId"`
	Votes  int    `json:"votes"`
}

// ConnectionEvent mirrors ConnectionPayload for the broadcast direction.
type ConnectionEvent struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
}

func SessionsList(summaries []types.SessionSummary) Event {
	return Event{Type: EventSessionsList, Payload: map[string]any{"sessions": summaries}}
}

func SessionState(snapshot types.SessionSnapshot) Event {
	return Event{Type: EventSessionState, Payload: snapshot}
}

func UserJoined(user *types.User) Event {
	return Event{Type: EventUserJoined, Payload: user}
}

func UserLeft(userID string) Event {
	return Event{Type: EventUserLeft, Payload: map[string]string{"userId": userID}}
}

func CursorMoved(userID string, x, y float64) Event {
	return Event{Type: EventCursorMove, Payload: CursorMoveEvent{UserID: userID, X: x, Y: y}}
}

func IdeaAdded(idea *types.Idea) Event {
	return Event{Type: EventIdeaAdded, Payload: idea}
}

func IdeaDeleted(ideaID string) Event {
	return Event{Type: EventIdeaDeleted, Payload: map[string]string{"ideaId": ideaID}}
}

func IdeaUpdated(idea *types.Idea) Event {
	return Event{Type: EventIdeaUpdated, Payload: idea}
}

func ConnectionAdded(sourceID, targetID string) Event {
	return Event{Type: EventConnectionAdded, Payload: ConnectionEvent{SourceID: sourceID, TargetID: targetID}}
}

func ConnectionRemoved(sourceID, targetID string) Event {
	return Event{Type: EventConnectionRemoved, Payload: ConnectionEvent{SourceID: sourceID, TargetID: targetID}}
}

func IdeaVoted(ideaID string, votes int) Event {
	return Event{Type: EventIdeaVoted, Payload: IdeaVotedEvent{IdeaID: ideaID, Votes: votes}}
}

// ErrorEvent is sent to the offending sender only; session state is never
// touched on the error path.
func ErrorEvent(message string) Event {
	return Event{Type: EventError, Payload: map[string]string{"message": message}}
}
