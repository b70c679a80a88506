// Package app is the composition root: it constructs every component
// explicitly and injects references instead of relying on package-level
// singletons.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/budprat/PromptAlchemy/internal/api"
	"github.com/budprat/PromptAlchemy/internal/broadcast"
	"github.com/budprat/PromptAlchemy/internal/config"
	"github.com/budprat/PromptAlchemy/internal/database"
	"github.com/budprat/PromptAlchemy/internal/hub"
	"github.com/budprat/PromptAlchemy/internal/router"
	"github.com/budprat/PromptAlchemy/internal/store"
	"github.com/budprat/PromptAlchemy/internal/ws"
	dbconfig "github.com/budprat/PromptAlchemy/pkg/database"
	"github.com/budprat/PromptAlchemy/pkg/interfaces"
)

// Application owns the component graph and its lifecycle.
type Application struct {
	config     *config.Config
	logger     *zap.Logger
	catalog    interfaces.Catalog
	store      *store.Store
	registry   *ws.Registry
	hub        *hub.Hub
	httpServer *http.Server
}

// NewApplication builds the component graph in dependency order:
// catalog -> store -> registry -> dispatcher -> router -> hub -> transport -> HTTP.
func NewApplication(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var catalog interfaces.Catalog
	if cfg.Database.Path != "" {
		dbCfg := dbconfig.DefaultConfig()
		dbCfg.DatabasePath = cfg.Database.Path
		c, err := database.NewCatalog(dbCfg, logger.Named("catalog"))
		if err != nil {
			return nil, fmt.Errorf("failed to open session catalog: %w", err)
		}
		catalog = c
	}

	sessionStore := store.NewStore(catalog, logger.Named("store"))
	if err := sessionStore.Restore(context.Background()); err != nil {
		if catalog != nil {
			_ = catalog.Close()
		}
		return nil, fmt.Errorf("failed to restore sessions: %w", err)
	}

	registry := ws.NewRegistry()
	dispatcher := broadcast.NewDispatcher(registry, logger.Named("broadcast"))
	messageRouter := router.NewRouter(sessionStore, registry, dispatcher, logger.Named("router"))
	messageHub := hub.NewHub(messageRouter, logger.Named("hub"))

	wsHandler := ws.NewHandler(sessionStore, messageHub, ws.Options{
		PingInterval: cfg.WebSocket.PingInterval,
		ReadTimeout:  cfg.WebSocket.ReadTimeout,
		WriteTimeout: cfg.WebSocket.WriteTimeout,
		SendBuffer:   cfg.WebSocket.SendBuffer,
	}, logger.Named("ws"))

	apiServer := api.NewServer(sessionStore, catalog, registry, logger.Named("api"))

	mux := http.NewServeMux()
	mux.Handle("/api/", apiServer)
	mux.Handle("/health", apiServer)
	mux.HandleFunc("/ws/whiteboard", wsHandler.HandleWhiteboard)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &Application{
		config:     cfg,
		logger:     logger,
		catalog:    catalog,
		store:      sessionStore,
		registry:   registry,
		hub:        messageHub,
		httpServer: httpServer,
	}, nil
}

// Start brings the hub up first so commands can be processed the moment the
// HTTP listener accepts connections.
func (a *Application) Start(ctx context.Context) error {
	a.logger.Info("starting whiteboard service", zap.String("addr", a.httpServer.Addr))

	if err := a.hub.Start(ctx); err != nil {
		return fmt.Errorf("failed to start hub: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		_ = a.hub.Stop()
		return err
	case <-time.After(100 * time.Millisecond):
		a.logger.Info("whiteboard service started")
		return nil
	case <-ctx.Done():
		_ = a.hub.Stop()
		return ctx.Err()
	}
}

// Stop shuts components down in reverse dependency order:
// HTTP -> hub -> catalog.
func (a *Application) Stop(ctx context.Context) error {
	a.logger.Info("shutting down whiteboard service")

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Warn("http server shutdown error", zap.Error(err))
	}
	if err := a.hub.Stop(); err != nil {
		a.logger.Warn("hub shutdown error", zap.Error(err))
	}
	if a.catalog != nil {
		if err := a.catalog.Close(); err != nil {
			a.logger.Warn("catalog shutdown error", zap.Error(err))
		}
	}

	a.logger.Info("whiteboard service shutdown complete")
	return nil
}

// Addr returns the server address for external connections.
func (a *Application) Addr() string {
	return a.httpServer.Addr
}
