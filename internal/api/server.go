// Package api exposes the session directory: a conventional request/response
// surface used for discovery before a client joins over the streaming
// channel. No business logic lives here, only HTTP handling and JSON
// serialization.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/budprat/PromptAlchemy/pkg/interfaces"
	"github.com/budprat/PromptAlchemy/pkg/types"
)

// ConnStats is the slice of the registry the health surface needs.
type ConnStats interface {
	Stats() map[string]int
}

// Server serves the directory and health endpoints.
type Server struct {
	store   interfaces.SessionStore
	catalog interfaces.Catalog
	stats   ConnStats
	logger  *zap.Logger
	router  chi.Router
}

type createSessionRequest struct {
	Name string `json:"name"`
}

type listSessionsResponse struct {
	Sessions []types.SessionSummary `json:"sessions"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewServer builds the chi router with CORS and request logging.
func NewServer(store interfaces.SessionStore, catalog interfaces.Catalog, stats ConnStats, logger *zap.Logger) *Server {
	s := &Server{
		store:   store,
		catalog: catalog,
		stats:   stats,
		logger:  logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}))

	r.Get("/api/sessions", s.listSessions)
	r.Post("/api/sessions", s.createSession)
	r.Get("/api/sessions/{sessionID}", s.getSession)
	r.Get("/health", s.healthCheck)

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// listSessions returns live summaries; counts reflect the most recent
// mutation, never a cached snapshot.
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	summaries := s.store.List()
	if summaries == nil {
		summaries = []types.SessionSummary{}
	}
	s.writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: summaries})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !types.IsValidSessionName(req.Name) {
		s.writeError(w, http.StatusBadRequest, "session name is required")
		return
	}

	session := s.store.Create(req.Name)
	s.writeJSON(w, http.StatusCreated, session.Summary())
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, exists := s.store.Get(sessionID)
	if !exists {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.writeJSON(w, http.StatusOK, session.Snapshot())
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	catalogStatus := "healthy"
	code := http.StatusOK

	if s.catalog != nil {
		if err := s.catalog.HealthCheck(ctx); err != nil {
			status = "unhealthy"
			catalogStatus = err.Error()
			code = http.StatusServiceUnavailable
		}
	} else {
		catalogStatus = "disabled"
	}

	s.writeJSON(w, code, map[string]any{
		"status":      status,
		"timestamp":   time.Now(),
		"catalog":     catalogStatus,
		"connections": s.stats.Stats(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, errorResponse{
		Error:   http.StatusText(code),
		Code:    code,
		Message: message,
	})
}
