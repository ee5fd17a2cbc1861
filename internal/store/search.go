package store

import (
	"database/sql"

	"github.com/starford/arbor/internal/models"
)

func scanSearchResults(rows *sql.Rows) ([]models.SearchResult, error) {
	var out []models.SearchResult
	for rows.Next() {
		var (
			r         models.SearchResult
			updatedAt string
		)
		if err := rows.Scan(&r.ID, &r.ParentID, &r.Content, &r.Snippet, &updatedAt); err != nil {
			return nil, err
		}
		r.UpdatedAt = parseTime(updatedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}
