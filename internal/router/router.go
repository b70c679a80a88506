// Package router is the sole authority translating inbound commands into
// state mutations and outbound events with explicit recipient sets. Its
// methods run on the hub goroutine, so commands against the same session are
// linearized and causally related events reach every observer in causal
// order.
package router

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/budprat/PromptAlchemy/pkg/interfaces"
	"github.com/budprat/PromptAlchemy/pkg/protocol"
	"github.com/budprat/PromptAlchemy/pkg/types"
)

// Cursor positions stream continuously while a pointer moves; each user gets
// a token bucket so a pathological client cannot monopolize the fan-out
// path. Over-limit moves are dropped silently - the next move supersedes
// them anyway.
const (
	cursorMovesPerSecond = 60
	cursorMoveBurst      = 90
)

// Router implements the command table. State machine per connection:
// unjoined -> joined(session, user) -> closed; identity lives in the
// registry, so a connection that never joined simply has no registry entry.
type Router struct {
	store      interfaces.SessionStore
	registry   interfaces.Registry
	dispatcher interfaces.Dispatcher
	logger     *zap.Logger

	cursorLimits map[interfaces.Conn]*rate.Limiter
}

// NewRouter wires the protocol handler.
func NewRouter(store interfaces.SessionStore, registry interfaces.Registry, dispatcher interfaces.Dispatcher, logger *zap.Logger) *Router {
	return &Router{
		store:        store,
		registry:     registry,
		dispatcher:   dispatcher,
		logger:       logger,
		cursorLimits: make(map[interfaces.Conn]*rate.Limiter),
	}
}

// HandleCommand processes one inbound frame. Protocol errors (unparseable
// frame, unknown type, bad payload) are reported to the sender only and
// leave all session state untouched. Referential errors - a command naming a
// session/idea/user that no longer exists - are silent no-ops, since they
// are expected under concurrent edits.
func (r *Router) HandleCommand(conn interfaces.Conn, frame []byte) {
	env, err := protocol.Decode(frame)
	if err != nil {
		r.replyError(conn, "malformed message")
		return
	}

	if env.Type == protocol.CmdJoin {
		r.handleJoin(conn, env)
		return
	}

	userID, sessionID, joined := r.registry.LookupByConnection(conn)
	if !joined {
		r.replyError(conn, "join a session before sending commands")
		return
	}

	session, ok := r.store.Get(sessionID)
	if !ok {
		// Registry points at a session the store no longer knows; treat as
		// referential miss.
		r.logger.Warn("registered connection references unknown session", zap.String("session", sessionID))
		return
	}

	switch env.Type {
	case protocol.CmdLeave:
		r.handleLeave(conn, session, userID)
	case protocol.CmdCursorMove:
		r.handleCursorMove(conn, env, session, userID)
	case protocol.CmdAddIdea:
		r.handleAddIdea(conn, env, session, userID)
	case protocol.CmdDeleteIdea:
		r.handleDeleteIdea(conn, env, session)
	case protocol.CmdUpdateIdea:
		r.handleUpdateIdea(conn, env, session)
	case protocol.CmdAddConnection:
		r.handleAddConnection(conn, env, session)
	case protocol.CmdRemoveConnection:
		r.handleRemoveConnection(conn, env, session)
	case protocol.CmdVote:
		r.handleVote(conn, env, session)
	default:
		r.replyError(conn, "unknown command type: "+env.Type)
	}
}

// HandleDisconnect runs synchronous cleanup when a channel closes: registry
// lookup, presence removal, user-left broadcast. There is no grace period; a
// reconnecting client re-joins and keeps its identity by supplying the same
// user id.
func (r *Router) HandleDisconnect(conn interfaces.Conn) {
	delete(r.cursorLimits, conn)

	userID, sessionID, ok := r.registry.UnregisterByConnection(conn)
	if !ok {
		return
	}

	session, exists := r.store.Get(sessionID)
	if !exists {
		return
	}
	if err := session.RemoveUser(userID); err != nil {
		return
	}
	r.store.Touch(sessionID)

	r.dispatcher.Broadcast(sessionID, protocol.UserLeft(userID))
	r.logger.Info("user disconnected", zap.String("session", sessionID), zap.String("user", userID))
}

// handleJoin transitions unjoined -> joined: create-or-fetch the session,
// register the connection, reply with the full snapshot, then announce the
// newcomer to everyone else. The joiner is excluded from the broadcast - the
// snapshot already told them everything.
func (r *Router) handleJoin(conn interfaces.Conn, env *protocol.Envelope) {
	var p protocol.JoinPayload
	if err := env.Bind(&p); err != nil {
		r.replyError(conn, "join requires a session id and user")
		return
	}
	if !types.IsValidSessionID(p.SessionID) {
		r.replyError(conn, types.ErrInvalidSessionID.Error())
		return
	}
	if !types.IsValidUserID(p.User.ID) {
		r.replyError(conn, types.ErrInvalidUserID.Error())
		return
	}

	if _, _, already := r.registry.LookupByConnection(conn); already {
		// One membership per connection; switching sessions means
		// reconnecting.
		r.replyError(conn, "connection already joined a session")
		return
	}

	session := r.store.GetOrCreate(p.SessionID, p.SessionName)
	user := session.UpsertUser(p.User.ID, p.User.Name, p.User.Color)
	r.registry.Register(conn, user.ID, session.ID)
	r.store.Touch(session.ID)

	if err := conn.SendEvent(protocol.SessionState(session.Snapshot())); err != nil {
		r.logger.Warn("failed to send session snapshot",
			zap.String("session", session.ID), zap.String("user", user.ID), zap.Error(err))
	}
	r.dispatcher.Broadcast(session.ID, protocol.UserJoined(user), user.ID)

	r.logger.Info("user joined", zap.String("session", session.ID), zap.String("user", user.ID))
}

func (r *Router) handleLeave(conn interfaces.Conn, session *types.Session, userID string) {
	delete(r.cursorLimits, conn)
	r.registry.UnregisterByConnection(conn)

	if err := session.RemoveUser(userID); err != nil {
		return
	}
	r.store.Touch(session.ID)

	r.dispatcher.Broadcast(session.ID, protocol.UserLeft(userID))
	r.logger.Info("user left", zap.String("session", session.ID), zap.String("user", userID))
}

func (r *Router) handleCursorMove(conn interfaces.Conn, env *protocol.Envelope, session *types.Session, userID string) {
	var p protocol.CursorMovePayload
	if err := env.Bind(&p); err != nil {
		r.replyError(conn, "cursor-move requires x and y")
		return
	}

	if !r.cursorLimiter(conn).Allow() {
		return
	}

	if err := session.MoveCursor(userID, p.X, p.Y); err != nil {
		return
	}

	// High-frequency event: the sender already knows its own cursor.
	r.dispatcher.Broadcast(session.ID, protocol.CursorMoved(userID, p.X, p.Y), userID)
}

func (r *Router) handleAddIdea(conn interfaces.Conn, env *protocol.Envelope, session *types.Session, userID string) {
	var p protocol.AddIdeaPayload
	if err := env.Bind(&p); err != nil {
		r.replyError(conn, "add-idea requires an idea payload")
		return
	}
	if !types.IsValidIdeaText(p.Text) {
		r.replyError(conn, types.ErrInvalidIdeaText.Error())
		return
	}

	id := p.ID
	if id == "" {
		id = uuid.New().String()
	}

	idea, err := session.AddIdea(&types.Idea{
		ID:        id,
		Text:      p.Text,
		X:         p.X,
		Y:         p.Y,
		Color:     p.Color,
		CreatedBy: userID,
	})
	if err != nil {
		// Duplicate client-chosen id; never overwrite an existing node.
		return
	}
	r.store.Touch(session.ID)

	r.dispatcher.Broadcast(session.ID, protocol.IdeaAdded(idea))
}

func (r *Router) handleDeleteIdea(conn interfaces.Conn, env *protocol.Envelope, session *types.Session) {
	var p protocol.DeleteIdeaPayload
	if err := env.Bind(&p); err != nil {
		r.replyError(conn, "delete-idea requires an idea id")
		return
	}

	if err := session.DeleteIdea(p.IdeaID); err != nil {
		return
	}
	r.store.Touch(session.ID)

	r.dispatcher.Broadcast(session.ID, protocol.IdeaDeleted(p.IdeaID))
}

func (r *Router) handleUpdateIdea(conn interfaces.Conn, env *protocol.Envelope, session *types.Session) {
	var p protocol.UpdateIdeaPayload
	if err := env.Bind(&p); err != nil {
		r.replyError(conn, "update-idea requires an idea id and patch")
		return
	}

	idea, err := session.UpdateIdea(p.IdeaID, p.Patch)
	if err != nil {
		return
	}
	r.store.Touch(session.ID)

	r.dispatcher.Broadcast(session.ID, protocol.IdeaUpdated(idea))
}

func (r *Router) handleAddConnection(conn interfaces.Conn, env *protocol.Envelope, session *types.Session) {
	var p protocol.ConnectionPayload
	if err := env.Bind(&p); err != nil {
		r.replyError(conn, "add-connection requires source and target ids")
		return
	}

	if err := session.AddConnection(p.SourceID, p.TargetID); err != nil {
		// Self-connections and unknown endpoints are dropped without an
		// error; the client-side gesture guards these already.
		return
	}
	r.store.Touch(session.ID)

	r.dispatcher.Broadcast(session.ID, protocol.ConnectionAdded(p.SourceID, p.TargetID))
}

func (r *Router) handleRemoveConnection(conn interfaces.Conn, env *protocol.Envelope, session *types.Session) {
	var p protocol.ConnectionPayload
	if err := env.Bind(&p); err != nil {
		r.replyError(conn, "remove-connection requires source and target ids")
		return
	}

	if err := session.RemoveConnection(p.SourceID, p.TargetID); err != nil {
		return
	}
	r.store.Touch(session.ID)

	r.dispatcher.Broadcast(session.ID, protocol.ConnectionRemoved(p.SourceID, p.TargetID))
}

func (r *Router) handleVote(conn interfaces.Conn, env *protocol.Envelope, session *types.Session) {
	var p protocol.VotePayload
	if err := env.Bind(&p); err != nil {
		r.replyError(conn, "vote requires an idea id")
		return
	}

	votes, err := session.Vote(p.IdeaID)
	if err != nil {
		return
	}
	r.store.Touch(session.ID)

	r.dispatcher.Broadcast(session.ID, protocol.IdeaVoted(p.IdeaID, votes))
}

func (r *Router) cursorLimiter(conn interfaces.Conn) *rate.Limiter {
	limiter, exists := r.cursorLimits[conn]
	if !exists {
		limiter = rate.NewLimiter(rate.Limit(cursorMovesPerSecond), cursorMoveBurst)
		r.cursorLimits[conn] = limiter
	}
	return limiter
}

func (r *Router) replyError(conn interfaces.Conn, message string) {
	if err := conn.SendEvent(protocol.ErrorEvent(message)); err != nil {
		r.logger.Debug("failed to deliver error event", zap.Error(err))
	}
}
