// Package store owns the in-memory session map. Sessions are never
// implicitly deleted; absence of eviction matches the product behavior and
// is a known limitation for long-lived processes.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/budprat/PromptAlchemy/pkg/interfaces"
	"github.com/budprat/PromptAlchemy/pkg/types"
)

const catalogWriteTimeout = 5 * time.Second

// Store implements interfaces.SessionStore. The catalog is optional: with a
// nil catalog the store is purely in-memory, which is what most tests use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*types.Session

	catalog interfaces.Catalog
	logger  *zap.Logger
}

// NewStore creates an empty session store.
func NewStore(catalog interfaces.Catalog, logger *zap.Logger) *Store {
	return &Store{
		sessions: make(map[string]*types.Session),
		catalog:  catalog,
		logger:   logger,
	}
}

// Restore loads previously recorded sessions from the catalog. Board content
// is not persisted, so restored sessions come back as empty boards carrying
// their name and timestamps.
func (s *Store) Restore(ctx context.Context) error {
	if s.catalog == nil {
		return nil
	}

	records, err := s.catalog.ListSessions(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if _, exists := s.sessions[rec.ID]; exists {
			continue
		}
		s.sessions[rec.ID] = types.RestoredSession(rec.ID, rec.Name, rec.CreatedAt, rec.LastActive)
	}

	s.logger.Info("restored sessions from catalog", zap.Int("count", len(records)))
	return nil
}

// Get returns the session with the given id, if present.
func (s *Store) Get(sessionID string) (*types.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[sessionID]
	return session, exists
}

// GetOrCreate returns the existing session or lazily creates one preserving
// the caller-chosen id. Used on the join path.
func (s *Store) GetOrCreate(sessionID, defaultName string) *types.Session {
	s.mu.Lock()
	if session, exists := s.sessions[sessionID]; exists {
		s.mu.Unlock()
		return session
	}

	if defaultName == "" {
		defaultName = sessionID
	}
	session := types.NewSession(sessionID, defaultName)
	s.sessions[sessionID] = session
	s.mu.Unlock()

	s.persist(session.Summary())
	s.logger.Info("session created on join", zap.String("session", sessionID), zap.String("name", defaultName))
	return session
}

// Create makes a session with a fresh server-generated id. Used by the
// directory create path.
func (s *Store) Create(name string) *types.Session {
	session := types.NewSession(uuid.New().String(), name)

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.persist(session.Summary())
	s.logger.Info("session created", zap.String("session", session.ID), zap.String("name", name))
	return session
}

// List returns summaries of every session, computed from live state at call
// time.
func (s *Store) List() []types.SessionSummary {
	s.mu.RLock()
	sessions := make([]*types.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.mu.RUnlock()

	summaries := make([]types.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, session.Summary())
	}
	return summaries
}

// Touch records mutation activity in the catalog, best effort. The hub
// goroutine must not stall on a catalog write, so the update runs in the
// background.
func (s *Store) Touch(sessionID string) {
	if s.catalog == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), catalogWriteTimeout)
		defer cancel()
		if err := s.catalog.TouchSession(ctx, sessionID); err != nil {
			s.logger.Warn("failed to touch session record", zap.String("session", sessionID), zap.Error(err))
		}
	}()
}

func (s *Store) persist(summary types.SessionSummary) {
	if s.catalog == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), catalogWriteTimeout)
		defer cancel()
		if err := s.catalog.SaveSession(ctx, summary); err != nil {
			s.logger.Warn("failed to persist session record", zap.String("session", summary.ID), zap.Error(err))
		}
	}()
}
