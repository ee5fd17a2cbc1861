package outline

import (
	"context"
	"slices"

	"github.com/starford/arbor/internal/models"
)

// SetSelection replaces the selection with the loaded notes among ids. The
// current note becomes the first of them.
func (t *Tree) SetSelection(ids ...string) {
	t.selection = t.selection[:0]
	for _, id := range ids {
		if t.Contains(id) && !slices.Contains(t.selection, id) {
			t.selection = append(t.selection, id)
		}
	}
	if len(t.selection) > 0 {
		t.current = t.selection[0]
	} else {
		t.current = ""
	}
}

// Selection returns the selected ids in selection order.
func (t *Tree) Selection() []string { return slices.Clone(t.selection) }

// Current returns the current note, or "" when nothing is selected.
func (t *Tree) Current() string { return t.current }

// SetCurrent makes id the current note and the only selected one.
func (t *Tree) SetCurrent(id string) bool {
	if !t.Contains(id) {
		return false
	}
	t.SetSelection(id)
	return true
}

// RestoreSelection reapplies a saved selection, skipping notes that have
// since left the view.
func (t *Tree) RestoreSelection(ids []string, current string) {
	t.SetSelection(ids...)
	if t.Contains(current) {
		t.current = current
	}
}

func (t *Tree) pruneSelection() {
	t.selection = slices.DeleteFunc(t.selection, func(id string) bool { return !t.Contains(id) })
	if !t.Contains(t.current) {
		t.current = ""
		if len(t.selection) > 0 {
			t.current = t.selection[0]
		}
	}
}

// VisibleIDs returns the ids of the visible notes in display order.
func (t *Tree) VisibleIDs() []string {
	var ids []string
	for _, r := range t.Rows() {
		if !r.Placeholder {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// Prev returns the visible note displayed just above id.
func (t *Tree) Prev(id string) (string, bool) {
	ids := t.VisibleIDs()
	i := slices.Index(ids, id)
	if i <= 0 {
		return "", false
	}
	return ids[i-1], true
}

// Next returns the visible note displayed just below id.
func (t *Tree) Next(id string) (string, bool) {
	ids := t.VisibleIDs()
	i := slices.Index(ids, id)
	if i < 0 || i+1 >= len(ids) {
		return "", false
	}
	return ids[i+1], true
}

// Normalize resolves ids to notes, drops duplicates and notes whose ancestor
// is also listed, and orders the rest by tree order.
func (t *Tree) Normalize(ctx context.Context, ids []string) ([]*models.Note, error) {
	var notes []*models.Note
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		n, err := t.lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}

	notes = slices.DeleteFunc(notes, func(n *models.Note) bool {
		return slices.ContainsFunc(notes, func(o *models.Note) bool { return o.IsAncestorOf(n) })
	})

	keys := make(map[string][]int, len(notes))
	for _, n := range notes {
		k, err := t.orderKey(ctx, n)
		if err != nil {
			return nil, err
		}
		keys[n.ID] = k
	}
	slices.SortStableFunc(notes, func(a, b *models.Note) int {
		return slices.Compare(keys[a.ID], keys[b.ID])
	})
	return notes, nil
}

// orderKey is the chain of positions from the root down to n.
func (t *Tree) orderKey(ctx context.Context, n *models.Note) ([]int, error) {
	var key []int
	for cur := n; !cur.IsRoot(); {
		key = append(key, cur.Position)
		p, err := t.lookup(ctx, cur.ParentID)
		if err != nil {
			return nil, err
		}
		cur = p
	}
	slices.Reverse(key)
	return key, nil
}
