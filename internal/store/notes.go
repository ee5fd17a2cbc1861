package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/models"
)

const noteColumns = `id, parent_id, position, content, task_status, priority, start_at, due_at,
	completed_at, expanded, path, depth, created_at, updated_at`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (*models.Note, error) {
	var (
		n                     models.Note
		parentID              sql.NullString
		status                string
		priority              sql.NullInt64
		start, due, completed sql.NullString
		expanded              bool
		createdAt, updatedAt  string
	)
	if err := s.Scan(&n.ID, &parentID, &n.Position, &n.Content, &status, &priority,
		&start, &due, &completed, &expanded, &n.Path, &n.Depth, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	n.ParentID = parentID.String
	n.TaskStatus = models.TaskStatus(status)
	if priority.Valid {
		p := int(priority.Int64)
		n.Priority = &p
	}
	n.StartAt = parseNullTime(start)
	n.DueAt = parseNullTime(due)
	n.CompletedAt = parseNullTime(completed)
	n.Expanded = expanded
	n.CreatedAt = parseTime(createdAt)
	n.UpdatedAt = parseTime(updatedAt)
	return &n, nil
}

func getNote(ctx context.Context, q querier, id string) (*models.Note, error) {
	row := q.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get note: %w", err)
	}
	return n, nil
}

func childCount(ctx context.Context, q querier, parentID, excludeID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notes WHERE parent_id = ? AND id != ?`, parentID, excludeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count children: %w", err)
	}
	return n, nil
}

func subtreePattern(path string) string {
	return path + ".%"
}

// GetNote returns the note with id, or an error wrapping apperr.ErrNotFound.
func (db *DB) GetNote(ctx context.Context, id string) (*models.Note, error) {
	return getNote(ctx, db.conn, id)
}

// GetChildren returns the children of parentID ordered by position.
func (db *DB) GetChildren(ctx context.Context, parentID string) ([]*models.Note, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE parent_id = ? ORDER BY position`, parentID)
	if err != nil {
		return nil, fmt.Errorf("store: get children: %w", err)
	}
	defer rows.Close()

	var out []*models.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan child: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CreateNote inserts a note under parentID at position, shifting later
// siblings down. A negative or oversized position appends.
func (db *DB) CreateNote(ctx context.Context, parentID, content string, position int) (string, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	parent, err := getNote(ctx, tx, parentID)
	if err != nil {
		return "", err
	}
	count, err := childCount(ctx, tx, parentID, "")
	if err != nil {
		return "", err
	}
	if position < 0 || position > count {
		position = count
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE notes SET position = position + 1 WHERE parent_id = ? AND position >= ?`,
		parentID, position); err != nil {
		return "", fmt.Errorf("store: shift siblings: %w", err)
	}

	id := uuid.NewString()
	now := formatTime(db.now())
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO notes (id, parent_id, position, content, path, depth, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, parentID, position, content, parent.Path+"."+id, parent.Depth+1, now, now); err != nil {
		return "", fmt.Errorf("store: insert note: %w", err)
	}
	if err := ftsUpsert(ctx, tx, id, content); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: commit: %w", err)
	}
	return id, nil
}

// UpdateNote stores new content. Without force an unchanged content is not
// written and the modification time stays as it was.
func (db *DB) UpdateNote(ctx context.Context, id, content string, force bool) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var current string
	err = tx.QueryRowContext(ctx, `SELECT content FROM notes WHERE id = ?`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("store: read content: %w", err)
	}
	if !force && current == content {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `UPDATE notes SET content = ?, updated_at = ? WHERE id = ?`,
		content, formatTime(db.now()), id); err != nil {
		return fmt.Errorf("store: update note: %w", err)
	}
	if err := ftsUpsert(ctx, tx, id, content); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteNote removes a note and its whole subtree, then closes the gap left
// among its siblings.
func (db *DB) DeleteNote(ctx context.Context, id string) error {
	if id == models.RootID {
		return fmt.Errorf("store: delete note: %w", apperr.ErrRootImmutable)
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	n, err := getNote(ctx, tx, id)
	if err != nil {
		return err
	}
	if err := ftsDeleteSubtree(ctx, tx, n.Path); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE path = ? OR path LIKE ?`,
		n.Path, subtreePattern(n.Path)); err != nil {
		return fmt.Errorf("store: delete subtree: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE notes SET position = position - 1 WHERE parent_id = ? AND position > ?`,
		n.ParentID, n.Position); err != nil {
		return fmt.Errorf("store: close gap: %w", err)
	}
	return tx.Commit()
}

// SaveExpansionState persists the expanded flag of a note.
func (db *DB) SaveExpansionState(ctx context.Context, id string, expanded bool) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE notes SET expanded = ? WHERE id = ?`, expanded, id)
	if err != nil {
		return fmt.Errorf("store: save expansion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// NextChildPosition returns the position a child appended under parentID
// would take.
func (db *DB) NextChildPosition(ctx context.Context, parentID string) (int, error) {
	var next int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM notes WHERE parent_id = ?`, parentID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("store: next child position: %w", err)
	}
	return next, nil
}

// CountDescendants returns the size of the subtree below id.
func (db *DB) CountDescendants(ctx context.Context, id string) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notes
		WHERE path LIKE (SELECT path FROM notes WHERE id = ?) || '.%'
	`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count descendants: %w", err)
	}
	return n, nil
}
