// Package clipboard copies, cuts and pastes whole subtrees, and converts
// them to and from indented outline text and YAML.
package clipboard

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/arbor/internal/models"
)

// Snapshot is a detached copy of one note and its descendants.
type Snapshot struct {
	ID         string            `yaml:"-" json:"-"`
	Content    string            `yaml:"content" json:"content"`
	TaskStatus models.TaskStatus `yaml:"status,omitempty" json:"task_status,omitempty"`
	Priority   *int              `yaml:"priority,omitempty" json:"priority,omitempty"`
	Start      *time.Time        `yaml:"start,omitempty" json:"start,omitempty"`
	Due        *time.Time        `yaml:"due,omitempty" json:"due,omitempty"`
	Children   []Snapshot        `yaml:"children,omitempty" json:"children,omitempty"`
}

// Size returns the number of notes in s, s included.
func (s Snapshot) Size() int {
	n := 1
	for _, c := range s.Children {
		n += c.Size()
	}
	return n
}

// Reader is the part of the store needed to take snapshots.
type Reader interface {
	GetNote(ctx context.Context, id string) (*models.Note, error)
	GetChildren(ctx context.Context, parentID string) ([]*models.Note, error)
}

// Capture snapshots the note id and its full subtree.
func Capture(ctx context.Context, r Reader, id string) (Snapshot, error) {
	n, err := r.GetNote(ctx, id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("clipboard: capture %s: %w", id, err)
	}
	return capture(ctx, r, n)
}

func capture(ctx context.Context, r Reader, n *models.Note) (Snapshot, error) {
	s := fromNote(n)
	kids, err := r.GetChildren(ctx, n.ID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("clipboard: capture children of %s: %w", n.ID, err)
	}
	for _, k := range kids {
		c, err := capture(ctx, r, k)
		if err != nil {
			return Snapshot{}, err
		}
		s.Children = append(s.Children, c)
	}
	return s, nil
}

func fromNote(n *models.Note) Snapshot {
	c := n.Clone()
	return Snapshot{
		ID:         c.ID,
		Content:    c.Content,
		TaskStatus: c.TaskStatus,
		Priority:   c.Priority,
		Start:      c.StartAt,
		Due:        c.DueAt,
	}
}
