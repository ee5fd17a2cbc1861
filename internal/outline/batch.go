package outline

import (
	"context"
	"fmt"
	"slices"

	"github.com/starford/arbor/internal/models"
)

// IsContiguous reports whether notes share one parent and their positions
// form a single run of consecutive integers. Input order does not matter.
func IsContiguous(notes []*models.Note) bool {
	if len(notes) == 0 {
		return false
	}
	parent := notes[0].ParentID
	pos := make([]int, 0, len(notes))
	for _, n := range notes {
		if n.IsRoot() || n.ParentID != parent {
			return false
		}
		pos = append(pos, n.Position)
	}
	slices.Sort(pos)
	for i := 1; i < len(pos); i++ {
		if pos[i] != pos[i-1]+1 {
			return false
		}
	}
	return true
}

func (m *Mutator) resolve(ctx context.Context, ids []string) ([]*models.Note, error) {
	notes := make([]*models.Note, 0, len(ids))
	for _, id := range ids {
		n, err := m.tree.lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// IndentMany indents a contiguous selection under the sibling before its
// first note, keeping the notes' relative order. Anything else is refused
// before any change is made.
func (m *Mutator) IndentMany(ctx context.Context, ids []string) (bool, error) {
	notes, err := m.resolve(ctx, ids)
	if err != nil {
		return false, fmt.Errorf("outline: indent: %w", err)
	}
	if !IsContiguous(notes) {
		return false, nil
	}
	if len(notes) == 1 {
		return m.Indent(ctx, notes[0].ID)
	}
	slices.SortFunc(notes, func(a, b *models.Note) int { return a.Position - b.Position })

	sibs, err := m.tree.siblings(ctx, notes[0].ParentID)
	if err != nil {
		return false, err
	}
	i := slices.Index(sibs, notes[0].ID)
	if i <= 0 {
		return false, nil
	}
	prev := sibs[i-1]
	base, err := m.store.NextChildPosition(ctx, prev)
	if err != nil {
		return false, fmt.Errorf("outline: indent: %w", err)
	}
	moves := make([]models.Move, len(notes))
	for k, n := range notes {
		moves[k] = models.Move{ID: n.ID, ParentID: prev, Position: base + k}
	}
	return m.applyMoves(ctx, moves)
}

// OutdentMany moves a contiguous selection to the grandparent, right after
// the old parent. Notes are handled from the highest position down so each
// lands at the same insertion point and the original order is kept.
func (m *Mutator) OutdentMany(ctx context.Context, ids []string) (bool, error) {
	notes, err := m.resolve(ctx, ids)
	if err != nil {
		return false, fmt.Errorf("outline: outdent: %w", err)
	}
	if !IsContiguous(notes) {
		return false, nil
	}
	if len(notes) == 1 {
		return m.Outdent(ctx, notes[0].ID)
	}
	parent, err := m.tree.lookup(ctx, notes[0].ParentID)
	if err != nil {
		return false, fmt.Errorf("outline: outdent: %w", err)
	}
	if parent.IsRoot() {
		return false, nil
	}
	slices.SortFunc(notes, func(a, b *models.Note) int { return b.Position - a.Position })

	moves := make([]models.Move, len(notes))
	for k, n := range notes {
		moves[k] = models.Move{ID: n.ID, ParentID: parent.ParentID, Position: parent.Position + 1}
	}
	return m.applyMoves(ctx, moves)
}
