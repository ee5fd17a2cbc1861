//go:build !sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/arbor/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on the notes.content column.
	return nil
}

func ftsUpsert(_ context.Context, _ querier, _, _ string) error { return nil }

func ftsDeleteSubtree(_ context.Context, _ querier, _ string) error { return nil }

// Search performs a LIKE-based content search, most recently modified first.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, COALESCE(parent_id, ''), content, substr(content, 1, 200), updated_at
		FROM notes
		WHERE content LIKE ?
		ORDER BY updated_at DESC
		LIMIT ?
	`, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()
	return scanSearchResults(rows)
}
