package database

import (
	"database/sql"
	"fmt"
)

// The catalog stores session records only: board content (ideas, users,
// cursors) lives in memory and is not replayed across restarts.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS sessions (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	created_at  DATETIME NOT NULL,
	last_active DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_last_active ON sessions(last_active);
`

// ApplySchema creates the catalog tables if they do not exist. The DDL is
// idempotent, so this runs unconditionally at startup.
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("failed to apply catalog schema: %w", err)
	}
	return nil
}

// ValidateSchema verifies the sessions table exists; used by tests and the
// health surface to catch a catalog opened against the wrong file.
func ValidateSchema(db *sql.DB) error {
	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='sessions'`).Scan(&name)
	if err == sql.ErrNoRows {
		return fmt.Errorf("required table sessions does not exist")
	}
	if err != nil {
		return fmt.Errorf("error checking catalog schema: %w", err)
	}
	return nil
}
