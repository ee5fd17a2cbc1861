// Package outline holds the note tree engine: an in-memory arena projected
// from the store, a depth-limited focusable view over it, and the structural
// mutations that keep both in step.
package outline

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/models"
)

// DefaultMaxDepth is how many levels below the top-level items are loaded
// before a placeholder stands in for the rest.
const DefaultMaxDepth = 10

// Store is the backing store driven by the engine. Every call is
// synchronous; a missing note is reported with apperr.ErrNotFound.
type Store interface {
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
}

// Row is one visible line of the view.
type Row struct {
	ID          string       `json:"id,omitempty"`
	ParentID    string       `json:"parent_id,omitempty"`
	Depth       int          `json:"depth"`
	Note        *models.Note `json:"note,omitempty"`
	HasChildren bool         `json:"has_children"`
	Expanded    bool         `json:"expanded"`
	Placeholder bool         `json:"placeholder,omitempty"`
	Hidden      int          `json:"hidden,omitempty"`
}

// Label is the text shown for the row.
func (r Row) Label() string {
	if r.Placeholder {
		return fmt.Sprintf("... (%d more levels - focus here to expand)", r.Hidden)
	}
	if r.Note == nil {
		return ""
	}
	return r.Note.TaskStatus.Glyph() + r.Note.Content
}

// Crumb is one entry of the breadcrumb trail.
type Crumb struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Tree is the view model: which note is focused, what is loaded below it,
// and which notes are selected.
type Tree struct {
	store    Store
	logger   *slog.Logger
	maxDepth int
	focus    string
	a        *arena

	selection []string
	current   string
}

// NewTree creates an empty view. Call Load before use.
func NewTree(store Store, maxDepth int, logger *slog.Logger) *Tree {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tree{
		store:    store,
		logger:   logger,
		maxDepth: maxDepth,
		focus:    models.RootID,
		a:        newArena(),
	}
}

// Load rebuilds the view rooted at rootID ("" means the true root). When
// the true root is focused it is itself the single top-level row; otherwise
// its children are the top level. On failure the previous view is kept.
func (t *Tree) Load(ctx context.Context, rootID string) error {
	if rootID == "" {
		rootID = models.RootID
	}
	focus, err := t.store.GetNote(ctx, rootID)
	if err != nil {
		return apperr.Store("get note", err)
	}

	a := newArena()
	a.notes[focus.ID] = focus
	depth := -1
	if focus.IsRoot() {
		depth = 0
	}
	if err := t.loadChildren(ctx, a, focus.ID, depth); err != nil {
		return err
	}

	t.a = a
	t.focus = focus.ID
	t.pruneSelection()
	return nil
}

// loadChildren materializes the children of parentID into a. depth counts
// levels below the top-level rows; once it reaches the limit the subtree is
// summarized by its descendant count instead.
func (t *Tree) loadChildren(ctx context.Context, a *arena, parentID string, depth int) error {
	if depth >= t.maxDepth {
		n, err := t.store.CountDescendants(ctx, parentID)
		if err != nil {
			return apperr.Store("count descendants", err)
		}
		delete(a.children, parentID)
		a.hidden[parentID] = n
		return nil
	}

	kids, err := t.store.GetChildren(ctx, parentID)
	if err != nil {
		return apperr.Store("get children", err)
	}
	ids := make([]string, 0, len(kids))
	for _, k := range kids {
		a.notes[k.ID] = k
		ids = append(ids, k.ID)
		if k.Expanded {
			if err := t.loadChildren(ctx, a, k.ID, depth+1); err != nil {
				return err
			}
			continue
		}
		next, err := t.store.NextChildPosition(ctx, k.ID)
		if err != nil {
			return apperr.Store("next child position", err)
		}
		a.counts[k.ID] = next
	}
	a.children[parentID] = ids
	delete(a.hidden, parentID)
	delete(a.counts, parentID)
	return nil
}

// materialize loads the children of id into a scratch arena and merges it
// only once every read has succeeded.
func (t *Tree) materialize(ctx context.Context, id string, depth int) error {
	scratch := newArena()
	if err := t.loadChildren(ctx, scratch, id, depth); err != nil {
		return err
	}
	t.a.merge(scratch)
	return nil
}

// refreshHidden recounts placeholders sitting on or above any of paths.
func (t *Tree) refreshHidden(ctx context.Context, paths ...string) {
	for id := range t.a.hidden {
		n := t.a.notes[id]
		if n == nil || !covers(n, paths) {
			continue
		}
		c, err := t.store.CountDescendants(ctx, id)
		if err != nil {
			t.logger.Warn("outline: recount placeholder failed",
				slog.String("id", id), slog.String("error", err.Error()))
			continue
		}
		t.a.hidden[id] = c
	}
}

// Focus returns the id of the focused root.
func (t *Tree) Focus() string { return t.focus }

// MaxDepth returns the current depth limit.
func (t *Tree) MaxDepth() int { return t.maxDepth }

// SetMaxDepth changes the depth limit and reloads the view.
func (t *Tree) SetMaxDepth(ctx context.Context, depth int) error {
	if depth <= 0 {
		return fmt.Errorf("outline: max depth %d: %w", depth, apperr.ErrRejected)
	}
	prev := t.maxDepth
	t.maxDepth = depth
	if err := t.Load(ctx, t.focus); err != nil {
		t.maxDepth = prev
		return err
	}
	return nil
}

// FocusOn re-roots the view at id. Focusing the current root is a no-op.
func (t *Tree) FocusOn(ctx context.Context, id string) (bool, error) {
	if id == "" {
		id = models.RootID
	}
	if id == t.focus {
		return false, nil
	}
	if err := t.Load(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// FocusUp moves focus to the parent of the focused root. It returns false
// at the true root.
func (t *Tree) FocusUp(ctx context.Context) (bool, error) {
	if t.focus == models.RootID {
		return false, nil
	}
	n, ok := t.a.notes[t.focus]
	if !ok || n.ParentID == "" {
		return false, nil
	}
	return t.FocusOn(ctx, n.ParentID)
}

// Breadcrumbs returns the chain from the true root down to the focused root.
func (t *Tree) Breadcrumbs(ctx context.Context) ([]Crumb, error) {
	return t.Trail(ctx, t.focus)
}

// Trail returns the ancestor chain of id, from the true root down to id.
func (t *Tree) Trail(ctx context.Context, id string) ([]Crumb, error) {
	var chain []Crumb
	for id != "" {
		n, err := t.store.GetNote(ctx, id)
		if err != nil {
			return nil, apperr.Store("get note", err)
		}
		chain = append(chain, Crumb{ID: n.ID, Label: crumbLabel(n.Content)})
		id = n.ParentID
	}
	slices.Reverse(chain)
	return chain, nil
}

func crumbLabel(content string) string {
	const max = 20
	r := []rune(content)
	switch {
	case len(r) == 0:
		return "(empty)"
	case len(r) > max:
		return string(r[:max]) + "..."
	}
	return content
}

// Expand shows the children of id, loading them if needed, and persists the
// flag. Nothing changes when the load or the save fails.
func (t *Tree) Expand(ctx context.Context, id string) (bool, error) {
	n, ok := t.a.notes[id]
	if !ok {
		return false, fmt.Errorf("outline: expand %s: %w", id, apperr.ErrNotFound)
	}
	_, loaded := t.a.children[id]
	_, hid := t.a.hidden[id]
	if n.Expanded && (loaded || hid) {
		return false, nil
	}

	scratch := newArena()
	if !loaded && !hid {
		if err := t.loadChildren(ctx, scratch, id, t.rowDepth(id)); err != nil {
			return false, err
		}
	}
	if !n.Expanded {
		if err := t.store.SaveExpansionState(ctx, id, true); err != nil {
			return false, apperr.Store("save expansion", err)
		}
	}
	t.a.merge(scratch)
	n.Expanded = true
	return true, nil
}

// Collapse hides the children of id and persists the flag.
func (t *Tree) Collapse(ctx context.Context, id string) (bool, error) {
	n, ok := t.a.notes[id]
	if !ok {
		return false, fmt.Errorf("outline: collapse %s: %w", id, apperr.ErrNotFound)
	}
	if !n.Expanded {
		return false, nil
	}
	if err := t.store.SaveExpansionState(ctx, id, false); err != nil {
		return false, apperr.Store("save expansion", err)
	}
	n.Expanded = false
	return true, nil
}

// ExpandPlaceholder replaces the placeholder under parentID with one more
// level of real notes.
func (t *Tree) ExpandPlaceholder(ctx context.Context, parentID string) (bool, error) {
	if _, ok := t.a.hidden[parentID]; !ok {
		return false, nil
	}
	if err := t.materialize(ctx, parentID, t.maxDepth-1); err != nil {
		return false, err
	}
	return true, nil
}

// ensureExpanded is used after notes land under parentID: the parent is
// expanded and its children loaded. Failures are logged, the view stays
// consistent either way.
func (t *Tree) ensureExpanded(ctx context.Context, parentID string) {
	n, ok := t.a.notes[parentID]
	if !ok {
		return
	}
	if _, err := t.Expand(ctx, parentID); err != nil {
		t.logger.Warn("outline: expand parent failed",
			slog.String("id", n.ID), slog.String("error", err.Error()))
	}
}

// rowDepth is the depth at which children of id are loaded: 0 for the
// top-level rows.
func (t *Tree) rowDepth(id string) int {
	d := 0
	for n := t.a.notes[id]; n != nil && n.ID != t.focus; n = t.a.notes[n.ParentID] {
		d++
	}
	if t.focus != models.RootID {
		d--
	}
	return d
}

func (t *Tree) top() []string {
	if t.focus == models.RootID {
		if _, ok := t.a.notes[models.RootID]; ok {
			return []string{models.RootID}
		}
		return nil
	}
	return t.a.children[t.focus]
}

// Rows returns the visible rows in display order.
func (t *Tree) Rows() []Row {
	var rows []Row
	var walk func(ids []string, depth int)
	walk = func(ids []string, depth int) {
		for _, id := range ids {
			n, ok := t.a.notes[id]
			if !ok {
				continue
			}
			rows = append(rows, Row{
				ID:          id,
				ParentID:    n.ParentID,
				Depth:       depth,
				Note:        n.Clone(),
				HasChildren: t.a.childCount(id) > 0,
				Expanded:    n.Expanded,
			})
			if !n.Expanded {
				continue
			}
			if kids, ok := t.a.children[id]; ok {
				walk(kids, depth+1)
			} else if h := t.a.hidden[id]; h > 0 {
				rows = append(rows, Row{ParentID: id, Depth: depth + 1, Placeholder: true, Hidden: h})
			}
		}
	}
	walk(t.top(), 0)
	return rows
}

// Note returns a copy of a loaded note.
func (t *Tree) Note(id string) (*models.Note, bool) {
	n, ok := t.a.notes[id]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Contains reports whether id is loaded in the view.
func (t *Tree) Contains(id string) bool {
	_, ok := t.a.notes[id]
	return ok
}

// lookup returns the live arena note, or a fresh copy from the store for
// notes outside the view. A loaded note whose siblings are not loaded (the
// focused root) is re-read first, since its position may have shifted.
func (t *Tree) lookup(ctx context.Context, id string) (*models.Note, error) {
	if n, ok := t.a.notes[id]; ok {
		if _, sibs := t.a.children[n.ParentID]; n.ParentID != "" && !sibs {
			t.refresh(ctx, id)
		}
		return n, nil
	}
	n, err := t.store.GetNote(ctx, id)
	if err != nil {
		return nil, apperr.Store("get note", err)
	}
	return n, nil
}

// siblings returns the ordered child ids of parentID.
func (t *Tree) siblings(ctx context.Context, parentID string) ([]string, error) {
	if kids, ok := t.a.children[parentID]; ok {
		return slices.Clone(kids), nil
	}
	kids, err := t.store.GetChildren(ctx, parentID)
	if err != nil {
		return nil, apperr.Store("get children", err)
	}
	ids := make([]string, len(kids))
	for i, k := range kids {
		ids[i] = k.ID
	}
	return ids, nil
}

// syncFocus re-reads the focused root after a structural change around it.
func (t *Tree) syncFocus(ctx context.Context) {
	if t.focus != models.RootID {
		t.refresh(ctx, t.focus)
	}
}

// reshape reloads what is materialized below id so that it honours the depth
// limit at id's current place in the view.
func (t *Tree) reshape(ctx context.Context, id string) error {
	_, loaded := t.a.children[id]
	_, hid := t.a.hidden[id]
	if !loaded && !hid {
		return nil
	}
	scratch := newArena()
	if err := t.loadChildren(ctx, scratch, id, t.rowDepth(id)); err != nil {
		return err
	}
	for _, kid := range t.a.children[id] {
		t.a.drop(kid)
	}
	delete(t.a.children, id)
	delete(t.a.hidden, id)
	t.a.merge(scratch)
	return nil
}

// refresh replaces a loaded note with the store's copy.
func (t *Tree) refresh(ctx context.Context, id string) {
	cur, ok := t.a.notes[id]
	if !ok {
		return
	}
	n, err := t.store.GetNote(ctx, id)
	if err != nil {
		t.logger.Warn("outline: refresh note failed", slog.String("id", id), slog.String("error", err.Error()))
		return
	}
	n.Expanded = cur.Expanded
	*cur = *n
}
