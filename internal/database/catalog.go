// Package database implements the durable session catalog on SQLite. Writes
// flow through a single goroutine, which is the reliable way to use SQLite
// under concurrency; reads go straight to the pooled connections.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	dbconfig "github.com/budprat/PromptAlchemy/pkg/database"
	"github.com/budprat/PromptAlchemy/pkg/types"
)

// Catalog implements interfaces.Catalog.
type Catalog struct {
	db      *sql.DB
	logger  *zap.Logger
	writeCh chan writeOp

	shutdown chan struct{}
	wg       sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

type writeOp struct {
	op     func(*sql.DB) error
	result chan error
}

// NewCatalog opens the catalog database, applies the schema, and starts the
// writer loop.
func NewCatalog(cfg *dbconfig.Config, logger *zap.Logger) (*Catalog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog config: %w", err)
	}

	db, err := cfg.Open()
	if err != nil {
		return nil, err
	}
	if err := dbconfig.ApplySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	c := &Catalog{
		db:       db,
		logger:   logger,
		writeCh:  make(chan writeOp, 100),
		shutdown: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.writeLoop()

	return c, nil
}

func (c *Catalog) writeLoop() {
	defer c.wg.Done()

	for {
		select {
		case op := <-c.writeCh:
			err := op.op(c.db)
			if err != nil {
				c.logger.Warn("catalog write failed, retrying once", zap.Error(err))
				err = op.op(c.db)
				if err != nil {
					c.logger.Error("catalog write failed after retry", zap.Error(err))
				}
			}
			op.result <- err

		case <-c.shutdown:
			return
		}
	}
}

func (c *Catalog) executeWrite(ctx context.Context, op func(*sql.DB) error) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return ErrCatalogClosed
	}
	c.mu.RUnlock()

	result := make(chan error, 1)
	select {
	case c.writeCh <- writeOp{op: op, result: result}:
		select {
		case err := <-result:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	case <-ctx.Done():
		return ctx.Err()
	case <-c.shutdown:
		return ErrCatalogClosed
	}
}

// SaveSession inserts a session record, or refreshes name and last-active if
// the id already exists (lazy-create joins may race a restart restore).
func (c *Catalog) SaveSession(ctx context.Context, summary types.SessionSummary) error {
	return c.executeWrite(ctx, func(db *sql.DB) error {
		_, err := db.Exec(
			`INSERT INTO sessions (id, name, created_at, last_active) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET name = excluded.name, last_active = excluded.last_active`,
			summary.ID, summary.Name, summary.CreatedAt, summary.LastActive,
		)
		return err
	})
}

// TouchSession updates a session's last-active timestamp.
func (c *Catalog) TouchSession(ctx context.Context, sessionID string) error {
	return c.executeWrite(ctx, func(db *sql.DB) error {
		_, err := db.Exec(`UPDATE sessions SET last_active = ? WHERE id = ?`, time.Now(), sessionID)
		return err
	})
}

// ListSessions returns every stored session record, most recently active
// first. Counts are zero here; live counts come from the in-memory store.
func (c *Catalog) ListSessions(ctx context.Context) ([]types.SessionSummary, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name, created_at, last_active FROM sessions ORDER BY last_active DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var summaries []types.SessionSummary
	for rows.Next() {
		var s types.SessionSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.LastActive); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// HealthCheck pings the database with the caller's deadline.
func (c *Catalog) HealthCheck(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close stops the writer loop and closes the database.
func (c *Catalog) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	close(c.shutdown)
	c.wg.Wait()
	return c.db.Close()
}
