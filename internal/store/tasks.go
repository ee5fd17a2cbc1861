package store

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/models"
)

// CycleTaskStatus advances id to the next task status and returns it.
// Completing stamps completed_at, cancelling clears it, and leaving the cycle
// drops every task field.
func (db *DB) CycleTaskStatus(ctx context.Context, id string) (models.TaskStatus, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	n, err := getNote(ctx, tx, id)
	if err != nil {
		return "", err
	}
	next := n.TaskStatus.Next()
	now := formatTime(db.now())

	var query string
	args := []any{string(next), now}
	switch next {
	case models.TaskActive:
		query = `UPDATE notes SET task_status = ?, updated_at = ? WHERE id = ?`
	case models.TaskComplete:
		query = `UPDATE notes SET task_status = ?, updated_at = ?, completed_at = ? WHERE id = ?`
		args = append(args, now)
	case models.TaskCancelled:
		query = `UPDATE notes SET task_status = ?, updated_at = ?, completed_at = NULL WHERE id = ?`
	default:
		query = `UPDATE notes SET task_status = ?, updated_at = ?,
			priority = NULL, start_at = NULL, due_at = NULL, completed_at = NULL WHERE id = ?`
	}
	args = append(args, id)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("store: cycle task status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: commit: %w", err)
	}
	return next, nil
}

// SetPriority sets or clears (nil) the priority of id. A note that is not a
// task becomes an active one.
func (db *DB) SetPriority(ctx context.Context, id string, priority *int) error {
	if priority != nil && (*priority < models.MinPriority || *priority > models.MaxPriority) {
		return fmt.Errorf("store: priority %d outside %d-%d: %w",
			*priority, models.MinPriority, models.MaxPriority, apperr.ErrRejected)
	}
	return db.updateTaskField(ctx, id, `priority = ?`, nullInt(priority))
}

// SetTaskDate sets or clears (nil) the start or due instant of id. A note
// that is not a task becomes an active one.
func (db *DB) SetTaskDate(ctx context.Context, id string, kind models.DateKind, at *time.Time) error {
	var column string
	switch kind {
	case models.DateStart:
		column = "start_at"
	case models.DateDue:
		column = "due_at"
	default:
		return fmt.Errorf("store: unknown date kind %q: %w", kind, apperr.ErrRejected)
	}
	return db.updateTaskField(ctx, id, column+` = ?`, nullTime(at))
}

func (db *DB) updateTaskField(ctx context.Context, id, assignment string, value any) error {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE notes SET `+assignment+`, updated_at = ?,
			task_status = CASE WHEN task_status = '' THEN 'active' ELSE task_status END
		WHERE id = ?
	`, value, formatTime(db.now()), id)
	if err != nil {
		return fmt.Errorf("store: update task field: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: note %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
