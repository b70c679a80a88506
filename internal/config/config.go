// Package config carries system-wide settings with the precedence
// file > environment > defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the runtime configuration for the whiteboard service.
type Config struct {
	HTTP      *HTTPConfig      `json:"http"`
	WebSocket *WebSocketConfig `json:"websocket"`
	Database  *DatabaseConfig  `json:"database"`
	Log       *LogConfig       `json:"log"`
}

type HTTPConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type WebSocketConfig struct {
	PingInterval time.Duration `json:"ping_interval"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	SendBuffer   int           `json:"send_buffer"`
}

type DatabaseConfig struct {
	// Path of the SQLite session catalog; empty disables persistence and
	// the store runs purely in memory.
	Path string `json:"path"`
}

type LogConfig struct {
	// Development switches zap to its console encoder with debug enabled.
	Development bool `json:"development"`
}

// DefaultConfig returns settings for a single-process deployment.
func DefaultConfig() *Config {
	return &Config{
		HTTP: &HTTPConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		WebSocket: &WebSocketConfig{
			PingInterval: 30 * time.Second,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 10 * time.Second,
			SendBuffer:   256,
		},
		Database: &DatabaseConfig{
			Path: "./data/whiteboard.db",
		},
		Log: &LogConfig{},
	}
}

// Validate catches misconfiguration before any component starts.
func (c *Config) Validate() error {
	if c.HTTP == nil {
		return fmt.Errorf("http configuration is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http port must be between 1 and 65535")
	}
	if c.HTTP.Host == "" {
		return fmt.Errorf("http host cannot be empty")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("http timeouts must be positive")
	}
	if c.WebSocket == nil {
		return fmt.Errorf("websocket configuration is required")
	}
	if c.WebSocket.PingInterval <= 0 || c.WebSocket.ReadTimeout <= 0 || c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("websocket intervals must be positive")
	}
	if c.WebSocket.ReadTimeout <= c.WebSocket.PingInterval {
		return fmt.Errorf("websocket read timeout must exceed the ping interval")
	}
	if c.WebSocket.SendBuffer <= 0 {
		return fmt.Errorf("websocket send buffer must be positive")
	}
	if c.Database == nil {
		return fmt.Errorf("database configuration is required")
	}
	if c.Log == nil {
		return fmt.Errorf("log configuration is required")
	}
	return nil
}

// LoadFromEnv returns defaults overridden by WHITEBOARD_* environment
// variables. Unparseable values fall back silently; startup never fails on a
// bad override.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	if host := os.Getenv("WHITEBOARD_HTTP_HOST"); host != "" {
		cfg.HTTP.Host = host
	}
	if port := os.Getenv("WHITEBOARD_HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.HTTP.Port = p
		}
	}
	if v := os.Getenv("WHITEBOARD_HTTP_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ReadTimeout = d
		}
	}
	if v := os.Getenv("WHITEBOARD_HTTP_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.WriteTimeout = d
		}
	}
	if v := os.Getenv("WHITEBOARD_WS_PING_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WebSocket.PingInterval = d
		}
	}
	if v := os.Getenv("WHITEBOARD_WS_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WebSocket.ReadTimeout = d
		}
	}
	if v := os.Getenv("WHITEBOARD_WS_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WebSocket.WriteTimeout = d
		}
	}
	if v := os.Getenv("WHITEBOARD_WS_SEND_BUFFER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.WebSocket.SendBuffer = n
		}
	}
	if path, ok := os.LookupEnv("WHITEBOARD_DATABASE_PATH"); ok {
		cfg.Database.Path = path
	}
	if v := os.Getenv("WHITEBOARD_LOG_DEVELOPMENT"); v != "" {
		cfg.Log.Development = v == "1" || v == "true"
	}

	return cfg
}

// fileConfig mirrors Config with string durations for JSON files.
type fileConfig struct {
	HTTP *struct {
		Host         string `json:"host"`
		Port         int    `json:"port"`
		ReadTimeout  string `json:"read_timeout"`
		WriteTimeout string `json:"write_timeout"`
	} `json:"http"`
	WebSocket *struct {
		PingInterval string `json:"ping_interval"`
		ReadTimeout  string `json:"read_timeout"`
		WriteTimeout string `json:"write_timeout"`
		SendBuffer   int    `json:"send_buffer"`
	} `json:"websocket"`
	Database *struct {
		Path string `json:"path"`
	} `json:"database"`
	Log *struct {
		Development bool `json:"development"`
	} `json:"log"`
}

// LoadFromFile overlays a JSON config file onto env- and default-derived
// settings, then validates the result.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg := LoadFromEnv()

	if fc.HTTP != nil {
		if fc.HTTP.Host != "" {
			cfg.HTTP.Host = fc.HTTP.Host
		}
		if fc.HTTP.Port > 0 {
			cfg.HTTP.Port = fc.HTTP.Port
		}
		if d, err := time.ParseDuration(fc.HTTP.ReadTimeout); err == nil {
			cfg.HTTP.ReadTimeout = d
		}
		if d, err := time.ParseDuration(fc.HTTP.WriteTimeout); err == nil {
			cfg.HTTP.WriteTimeout = d
		}
	}
	if fc.WebSocket != nil {
		if d, err := time.ParseDuration(fc.WebSocket.PingInterval); err == nil {
			cfg.WebSocket.PingInterval = d
		}
		if d, err := time.ParseDuration(fc.WebSocket.ReadTimeout); err == nil {
			cfg.WebSocket.ReadTimeout = d
		}
		if d, err := time.ParseDuration(fc.WebSocket.WriteTimeout); err == nil {
			cfg.WebSocket.WriteTimeout = d
		}
		if fc.WebSocket.SendBuffer > 0 {
			cfg.WebSocket.SendBuffer = fc.WebSocket.SendBuffer
		}
	}
	if fc.Database != nil {
		cfg.Database.Path = fc.Database.Path
	}
	if fc.Log != nil {
		cfg.Log.Development = fc.Log.Development
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	return cfg, nil
}

// Load resolves configuration with the standard precedence. A missing or
// unreadable file falls back to env/defaults.
func Load(path string) *Config {
	if path != "" {
		if cfg, err := LoadFromFile(path); err == nil {
			return cfg
		}
	}
	return LoadFromEnv()
}
