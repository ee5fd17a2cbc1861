package store

import (
	"context"
	"fmt"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/models"
)

// MoveNote relocates id under newParentID. newPosition is the final index
// among the new siblings once the note has left its old place; it is clamped
// to the valid range.
func (db *DB) MoveNote(ctx context.Context, id, newParentID string, newPosition int) error {
	return db.MoveNotes(ctx, []models.Move{{ID: id, ParentID: newParentID, Position: newPosition}})
}

// MoveNotes applies moves in order inside one transaction. Either every move
// is applied or none is.
func (db *DB) MoveNotes(ctx context.Context, moves []models.Move) error {
	if len(moves) == 0 {
		return nil
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, m := range moves {
		if err := db.moveTx(ctx, tx, m); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func (db *DB) moveTx(ctx context.Context, q querier, m models.Move) error {
	n, err := getNote(ctx, q, m.ID)
	if err != nil {
		return err
	}
	if n.IsRoot() {
		return fmt.Errorf("store: move note: %w", apperr.ErrRootImmutable)
	}
	parent, err := getNote(ctx, q, m.ParentID)
	if err != nil {
		return err
	}
	if parent.ID == n.ID || n.IsAncestorOf(parent) {
		return fmt.Errorf("store: move %s into its own subtree: %w", n.ID, apperr.ErrRejected)
	}

	// Leave the old sibling list.
	if _, err := q.ExecContext(ctx,
		`UPDATE notes SET position = position - 1 WHERE parent_id = ? AND position > ?`,
		n.ParentID, n.Position); err != nil {
		return fmt.Errorf("store: close gap: %w", err)
	}

	count, err := childCount(ctx, q, parent.ID, n.ID)
	if err != nil {
		return err
	}
	pos := m.Position
	if pos < 0 || pos > count {
		pos = count
	}
	if _, err := q.ExecContext(ctx,
		`UPDATE notes SET position = position + 1 WHERE parent_id = ? AND id != ? AND position >= ?`,
		parent.ID, n.ID, pos); err != nil {
		return fmt.Errorf("store: open gap: %w", err)
	}

	newPath := parent.Path + "." + n.ID
	newDepth := parent.Depth + 1
	if _, err := q.ExecContext(ctx, `
		UPDATE notes SET parent_id = ?, position = ?, path = ?, depth = ?, updated_at = ?
		WHERE id = ?
	`, parent.ID, pos, newPath, newDepth, formatTime(db.now()), n.ID); err != nil {
		return fmt.Errorf("store: relocate note: %w", err)
	}

	if newPath != n.Path {
		if _, err := q.ExecContext(ctx, `
			UPDATE notes SET path = ? || substr(path, ?), depth = depth + ?
			WHERE path LIKE ?
		`, newPath, len(n.Path)+1, newDepth-n.Depth, subtreePattern(n.Path)); err != nil {
			return fmt.Errorf("store: rewrite subtree paths: %w", err)
		}
	}
	return nil
}
