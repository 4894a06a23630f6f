// Package store provides note persistence on an embedded SQLite database,
// with an in-memory alternative for tests and ephemeral runs.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// SchemaVersion is stored in PRAGMA user_version. A store written with any
// other non-zero version is discarded and recreated on open.
const SchemaVersion = 1

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT NOT NULL DEFAULT '',
	date TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_date ON notes(date);
`

const dropSchemaSQL = `
DROP INDEX IF EXISTS idx_notes_date;
DROP TABLE IF EXISTS notes;
`

// DB wraps a sql.DB with note-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if err := applySchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{conn: conn}, nil
}

func applySchema(conn *sql.DB) error {
	var version int
	if err := conn.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("store: read schema version: %w", err)
	}
	if version != 0 && version != SchemaVersion {
		slog.Warn("store: schema version mismatch, recreating",
			slog.Int("found", version),
			slog.Int("want", SchemaVersion))
		if _, err := conn.Exec(dropSchemaSQL); err != nil {
			return fmt.Errorf("store: drop schema: %w", err)
		}
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		return fmt.Errorf("store: apply core schema: %w", err)
	}
	if _, err := conn.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion)); err != nil {
		return fmt.Errorf("store: write schema version: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
