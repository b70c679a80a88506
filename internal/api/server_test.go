package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/budprat/PromptAlchemy/internal/store"
	"github.com/budprat/PromptAlchemy/pkg/types"
)

type stubStats struct{}

func (stubStats) Stats() map[string]int {
	return map[string]int{"total_connections": 0, "active_sessions": 0}
}

type failingCatalog struct{}

func (failingCatalog) SaveSession(context.Context, types.SessionSummary) error { return nil }
func (failingCatalog) TouchSession(context.Context, string) error              { return nil }
func (failingCatalog) ListSessions(context.Context) ([]types.SessionSummary, error) {
	return nil, nil
}
func (failingCatalog) HealthCheck(context.Context) error { return errors.New("disk on fire") }
func (failingCatalog) Close() error                      { return nil }

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	sessionStore := store.NewStore(nil, zap.NewNop())
	return NewServer(sessionStore, nil, stubStats{}, zap.NewNop()), sessionStore
}

func TestListSessionsEmpty(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"sessions":[]}`, rec.Body.String())
}

func TestCreateThenListSessions(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions",
		strings.NewReader(`{"name":"Sprint Retro"}`)))

	require.Equal(t, http.StatusCreated, rec.Code)
	var created types.SessionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Sprint Retro", created.Name)
	assert.Zero(t, created.UserCount)

	rec = httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	var listed struct {
		Sessions []types.SessionSummary `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Sessions, 1)
	assert.Equal(t, created.ID, listed.Sessions[0].ID)
}

func TestCreateSessionRejectsBadInput(t *testing.T) {
	server, _ := newTestServer(t)

	for name, body := range map[string]string{
		"invalid json": `{broken`,
		"missing name": `{}`,
		"blank name":   `{"name":""}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions",
				strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetSession(t *testing.T) {
	server, sessionStore := newTestServer(t)
	session := sessionStore.GetOrCreate("board-1", "Planning")
	session.UpsertUser("u1", "Alice", "")

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/board-1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var snap types.SessionSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "board-1", snap.ID)
	assert.Contains(t, snap.Users, "u1")
}

func TestGetSessionNotFound(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/ghost", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, body.Code)
}

func TestHealthWithoutCatalog(t *testing.T) {
	server, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "disabled", body["catalog"])
}

func TestHealthReportsCatalogFailure(t *testing.T) {
	sessionStore := store.NewStore(nil, zap.NewNop())
	server := NewServer(sessionStore, failingCatalog{}, stubStats{}, zap.NewNop())

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body["status"])
}

func TestDirectoryCountsAreLive(t *testing.T) {
	server, sessionStore := newTestServer(t)
	session := sessionStore.GetOrCreate("board-1", "Planning")
	session.UpsertUser("u1", "Alice", "")
	_, err := session.AddIdea(&types.Idea{ID: "i1", Text: "hello"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	var listed struct {
		Sessions []types.SessionSummary `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Sessions, 1)
	assert.Equal(t, 1, listed.Sessions[0].UserCount)
	assert.Equal(t, 1, listed.Sessions[0].IdeaCount)
}
