package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/arbor/internal/models"
)

// NoteStore is the full set of operations the SQLite store offers.
// Consumers should depend on the narrower interfaces they need.
type NoteStore interface {
	GetNote(ctx context.Context, id string) (*models.Note, error)
	GetChildren(ctx context.Context, parentID string) ([]*models.Note, error)
	CreateNote(ctx context.Context, parentID, content string, position int) (string, error)
	UpdateNote(ctx context.Context, id, content string, force bool) error
	DeleteNote(ctx context.Context, id string) error
	MoveNote(ctx context.Context, id, newParentID string, newPosition int) error
	MoveNotes(ctx context.Context, moves []models.Move) error
	SaveExpansionState(ctx context.Context, id string, expanded bool) error
	CycleTaskStatus(ctx context.Context, id string) (models.TaskStatus, error)
	NextChildPosition(ctx context.Context, parentID string) (int, error)
	CountDescendants(ctx context.Context, id string) (int, error)
	SetPriority(ctx context.Context, id string, priority *int) error
	SetTaskDate(ctx context.Context, id string, kind models.DateKind, at *time.Time) error
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
	Repair(ctx context.Context, logger *slog.Logger) (int, error)
	Close() error
}

// Verify *DB satisfies NoteStore at compile time.
var _ NoteStore = (*DB)(nil)
