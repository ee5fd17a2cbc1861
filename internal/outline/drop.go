package outline

import (
	"context"
	"fmt"
	"slices"

	"github.com/starford/arbor/internal/models"
)

// DropPosition says where dragged notes land relative to the drop target.
type DropPosition int

const (
	// DropOn makes the notes the last children of the target.
	DropOn DropPosition = iota
	// DropAbove inserts the notes as siblings just before the target.
	DropAbove
	// DropBelow inserts the notes as siblings just after the target.
	DropBelow
	// DropEmpty appends the notes to the focused root.
	DropEmpty
)

// ParseDropPosition maps "on", "above", "below" and "empty" to a DropPosition.
func ParseDropPosition(s string) (DropPosition, bool) {
	switch s {
	case "on":
		return DropOn, true
	case "above":
		return DropAbove, true
	case "below":
		return DropBelow, true
	case "empty", "":
		return DropEmpty, true
	}
	return 0, false
}

func (p DropPosition) String() string {
	switch p {
	case DropOn:
		return "on"
	case DropAbove:
		return "above"
	case DropBelow:
		return "below"
	}
	return "empty"
}

// Drop moves the dragged notes relative to targetID (ignored for DropEmpty).
// The dragged notes keep their tree order. Dragging the root, dropping onto
// one of the dragged notes, or into a dragged subtree is refused.
func (m *Mutator) Drop(ctx context.Context, ids []string, targetID string, where DropPosition) (bool, error) {
	t := m.tree
	notes, err := t.Normalize(ctx, ids)
	if err != nil {
		return false, fmt.Errorf("outline: drop: %w", err)
	}
	if len(notes) == 0 {
		return false, nil
	}
	for _, n := range notes {
		if n.IsRoot() {
			return false, nil
		}
	}

	var parentID string
	var target *models.Note
	if where == DropEmpty {
		parentID = t.focus
	} else {
		target, err = t.lookup(ctx, targetID)
		if err != nil {
			return false, fmt.Errorf("outline: drop: %w", err)
		}
		for _, n := range notes {
			if n.ID == target.ID || n.IsAncestorOf(target) {
				return false, nil
			}
		}
		parentID = target.ID
		if where != DropOn {
			if target.IsRoot() {
				return false, nil
			}
			parentID = target.ParentID
		}
	}
	// The destination must not sit inside a dragged subtree.
	if dest, err := t.lookup(ctx, parentID); err == nil {
		for _, n := range notes {
			if n.ID == dest.ID || n.IsAncestorOf(dest) {
				return false, nil
			}
		}
	}

	sibs, err := t.siblings(ctx, parentID)
	if err != nil {
		return false, err
	}
	moves := make([]models.Move, 0, len(notes))
	var prev string
	for k, n := range notes {
		if i := slices.Index(sibs, n.ID); i >= 0 {
			sibs = slices.Delete(sibs, i, i+1)
		}
		var pos int
		switch {
		case k > 0:
			pos = slices.Index(sibs, prev) + 1
		case where == DropAbove:
			pos = slices.Index(sibs, target.ID)
		case where == DropBelow:
			pos = slices.Index(sibs, target.ID) + 1
		default:
			pos = len(sibs)
		}
		sibs = slices.Insert(sibs, pos, n.ID)
		moves = append(moves, models.Move{ID: n.ID, ParentID: parentID, Position: pos})
		prev = n.ID
	}
	return m.applyMoves(ctx, moves)
}
