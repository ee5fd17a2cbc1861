//go:build sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/arbor/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS notes_fts USING fts5(
			id UNINDEXED,
			content,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(ctx context.Context, q querier, id, content string) error {
	_, _ = q.ExecContext(ctx, `DELETE FROM notes_fts WHERE id = ?`, id)
	if _, err := q.ExecContext(ctx, `INSERT INTO notes_fts (id, content) VALUES (?, ?)`, id, content); err != nil {
		return fmt.Errorf("store: upsert fts: %w", err)
	}
	return nil
}

func ftsDeleteSubtree(ctx context.Context, q querier, path string) error {
	_, err := q.ExecContext(ctx, `
		DELETE FROM notes_fts WHERE id IN (SELECT id FROM notes WHERE path = ? OR path LIKE ?)
	`, path, subtreePattern(path))
	if err != nil {
		return fmt.Errorf("store: delete fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search and returns matches with snippets.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT n.id, COALESCE(n.parent_id, ''), n.content,
		       snippet(notes_fts, 1, '<b>', '</b>', '...', 32), n.updated_at
		FROM notes_fts
		JOIN notes n ON n.id = notes_fts.id
		WHERE notes_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()
	return scanSearchResults(rows)
}
