package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "./data/whiteboard.db", cfg.Database.Path)
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HTTP.Port = 0
	assert.Error(t, cfg.Validate())

	cfg.HTTP.Port = 70000
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsReadTimeoutBelowPingInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WebSocket.PingInterval = 60 * time.Second
	cfg.WebSocket.ReadTimeout = 30 * time.Second

	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsMissingSections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WebSocket = nil
	assert.Error(t, cfg.Validate())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("WHITEBOARD_HTTP_HOST", "127.0.0.1")
	t.Setenv("WHITEBOARD_HTTP_PORT", "9090")
	t.Setenv("WHITEBOARD_WS_PING_INTERVAL", "10s")
	t.Setenv("WHITEBOARD_WS_SEND_BUFFER", "64")
	t.Setenv("WHITEBOARD_LOG_DEVELOPMENT", "true")

	cfg := LoadFromEnv()

	assert.Equal(t, "127.0.0.1", cfg.HTTP.Host)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.WebSocket.PingInterval)
	assert.Equal(t, 64, cfg.WebSocket.SendBuffer)
	assert.True(t, cfg.Log.Development)
}

func TestLoadFromEnvEmptyDatabasePathDisablesPersistence(t *testing.T) {
	// The variable being set to an empty string is meaningful, so LookupEnv
	// is used instead of Getenv.
	t.Setenv("WHITEBOARD_DATABASE_PATH", "")

	cfg := LoadFromEnv()

	assert.Empty(t, cfg.Database.Path)
}

func TestLoadFromEnvIgnoresUnparseableValues(t *testing.T) {
	t.Setenv("WHITEBOARD_HTTP_PORT", "not-a-number")
	t.Setenv("WHITEBOARD_WS_READ_TIMEOUT", "soon")

	cfg := LoadFromEnv()

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 60*time.Second, cfg.WebSocket.ReadTimeout)
}

func TestLoadFromFileOverridesEnv(t *testing.T) {
	t.Setenv("WHITEBOARD_HTTP_PORT", "9090")

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"http": {"port": 9999, "read_timeout": "15s"},
		"websocket": {"ping_interval": "5s", "read_timeout": "20s"},
		"database": {"path": ""}
	}`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.HTTP.Port, "file wins over env")
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.WebSocket.PingInterval)
	assert.Empty(t, cfg.Database.Path)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host, "unset file fields keep lower-precedence values")
}

func TestLoadFromFileRejectsInvalidResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	// Read timeout below the ping interval would let healthy idle
	// connections expire.
	require.NoError(t, os.WriteFile(path, []byte(`{"websocket": {"read_timeout": "5s"}}`), 0o644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFileMissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadFallsBackWhenFileUnreadable(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.HTTP.Port)
}
