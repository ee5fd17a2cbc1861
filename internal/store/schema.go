// Package store provides the SQLite-backed note tree: materialized paths,
// contiguous sibling positions, task fields and optional FTS5 search.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/arbor/internal/models"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	id           TEXT PRIMARY KEY,
	parent_id    TEXT,
	position     INTEGER NOT NULL DEFAULT 0,
	content      TEXT NOT NULL DEFAULT '',
	task_status  TEXT NOT NULL DEFAULT '',
	priority     INTEGER,
	start_at     TEXT,
	due_at       TEXT,
	completed_at TEXT,
	expanded     INTEGER NOT NULL DEFAULT 0,
	path         TEXT NOT NULL,
	depth        INTEGER NOT NULL DEFAULT 0,
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notes_parent ON notes(parent_id, position);
CREATE INDEX IF NOT EXISTS idx_notes_path ON notes(path);
CREATE INDEX IF NOT EXISTS idx_notes_updated ON notes(updated_at);
`

// DB wraps a sql.DB with note-tree operations.
type DB struct {
	conn *sql.DB
	now  func() time.Time
}

// Open opens (or creates) the SQLite database, applies the schema and makes
// sure the true root exists.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	// A single connection keeps every transaction on the same SQLite handle.
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	db := &DB{conn: conn, now: func() time.Time { return time.Now().UTC() }}
	if err := db.ensureRoot(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) ensureRoot(ctx context.Context) error {
	now := formatTime(db.now())
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO notes (id, parent_id, position, content, expanded, path, depth, created_at, updated_at)
		VALUES (?, NULL, 0, ?, 1, ?, 0, ?, ?)
	`, models.RootID, models.RootContent, models.RootID, now, now)
	if err != nil {
		return fmt.Errorf("store: ensure root: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t.Local()
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
