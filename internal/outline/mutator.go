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

// ChangeKind names what happened to a note.
type ChangeKind string

const (
	NoteCreated ChangeKind = "created"
	NoteUpdated ChangeKind = "updated"
	NoteDeleted ChangeKind = "deleted"
	NoteMoved   ChangeKind = "moved"
)

// Notifier is told about every change the mutator commits.
type Notifier interface {
	NoteChanged(kind ChangeKind, id string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(kind ChangeKind, id string)

func (f NotifierFunc) NoteChanged(kind ChangeKind, id string) { f(kind, id) }

type nopNotifier struct{}

func (nopNotifier) NoteChanged(ChangeKind, string) {}

// Mutator applies structural and field changes. Each change is sent to the
// store first; the in-memory tree only follows once the store has accepted
// it, so a failed call leaves the view exactly as it was.
//
// Methods return applied=false with a nil error when a precondition does not
// hold (outdent at the top level, indent of a first child, a cyclic move).
type Mutator struct {
	tree   *Tree
	store  Store
	logger *slog.Logger
	notify Notifier
}

// NewMutator returns a mutator over tree. notify may be nil.
func NewMutator(tree *Tree, notify Notifier) *Mutator {
	if notify == nil {
		notify = nopNotifier{}
	}
	return &Mutator{tree: tree, store: tree.store, logger: tree.logger, notify: notify}
}

// Tree returns the view the mutator keeps in step.
func (m *Mutator) Tree() *Tree { return m.tree }

// CreateChild inserts a new note under parentID at position and expands the
// parent. It returns the new note's id.
func (m *Mutator) CreateChild(ctx context.Context, parentID, content string, position int) (string, error) {
	t := m.tree
	parent, err := t.lookup(ctx, parentID)
	if err != nil {
		return "", fmt.Errorf("outline: create child: %w", err)
	}

	id, err := m.store.CreateNote(ctx, parentID, content, position)
	if err != nil {
		return "", apperr.Store("create note", err)
	}

	n, err := m.store.GetNote(ctx, id)
	if err != nil {
		m.logger.Warn("outline: reread created note failed", slog.String("id", id), slog.String("error", err.Error()))
		pos := position
		if c := t.a.childCount(parentID); pos < 0 || pos > c {
			pos = c
		}
		n = &models.Note{
			ID:       id,
			ParentID: parentID,
			Position: pos,
			Content:  content,
			Path:     parent.Path + "." + id,
			Depth:    parent.Depth + 1,
		}
	}

	if t.Contains(parentID) {
		t.a.insert(n)
		t.ensureExpanded(ctx, parentID)
	}
	t.syncFocus(ctx)
	t.refreshHidden(ctx, parent.Path)
	m.notify.NoteChanged(NoteCreated, id)
	return id, nil
}

// AppendChild inserts a new note as the last child of parentID.
func (m *Mutator) AppendChild(ctx context.Context, parentID, content string) (string, error) {
	pos, err := m.store.NextChildPosition(ctx, parentID)
	if err != nil {
		return "", apperr.Store("next child position", err)
	}
	return m.CreateChild(ctx, parentID, content, pos)
}

// CreateSibling inserts a new note right after afterID. A note without a
// parent gets the new note as the first child of the focused root.
func (m *Mutator) CreateSibling(ctx context.Context, afterID, content string) (string, error) {
	after, err := m.tree.lookup(ctx, afterID)
	if err != nil {
		return "", fmt.Errorf("outline: create sibling: %w", err)
	}
	if after.IsRoot() {
		return m.CreateChild(ctx, m.tree.focus, content, 0)
	}
	return m.CreateChild(ctx, after.ParentID, content, after.Position+1)
}

// Delete removes id and its subtree. The root cannot be deleted. When the
// focused root is inside the removed subtree the view re-focuses on the
// deleted note's parent.
func (m *Mutator) Delete(ctx context.Context, id string) (bool, error) {
	t := m.tree
	n, err := t.lookup(ctx, id)
	if err != nil {
		return false, fmt.Errorf("outline: delete: %w", err)
	}
	if n.IsRoot() {
		return false, nil
	}
	focusGone := n.ID == t.focus
	if f, ok := t.a.notes[t.focus]; ok && n.IsAncestorOf(f) {
		focusGone = true
	}
	parentID, path := n.ParentID, n.Path

	if err := m.store.DeleteNote(ctx, id); err != nil {
		return false, apperr.Store("delete note", err)
	}

	if t.Contains(id) {
		t.a.remove(n)
	} else {
		t.a.detach(id, parentID)
	}
	if focusGone {
		if err := t.Load(ctx, parentID); err != nil {
			m.logger.Warn("outline: refocus after delete failed", slog.String("id", parentID), slog.String("error", err.Error()))
		}
	}
	t.syncFocus(ctx)
	t.pruneSelection()
	t.refreshHidden(ctx, path)
	m.notify.NoteChanged(NoteDeleted, id)
	return true, nil
}

// Indent makes id the last child of its preceding sibling. A first child
// stays where it is.
func (m *Mutator) Indent(ctx context.Context, id string) (bool, error) {
	n, err := m.tree.lookup(ctx, id)
	if err != nil {
		return false, fmt.Errorf("outline: indent: %w", err)
	}
	if n.IsRoot() {
		return false, nil
	}
	sibs, err := m.tree.siblings(ctx, n.ParentID)
	if err != nil {
		return false, err
	}
	i := slices.Index(sibs, id)
	if i <= 0 {
		return false, nil
	}
	prev := sibs[i-1]
	pos, err := m.store.NextChildPosition(ctx, prev)
	if err != nil {
		return false, apperr.Store("next child position", err)
	}
	return m.applyMoves(ctx, []models.Move{{ID: id, ParentID: prev, Position: pos}})
}

// Outdent moves id to its grandparent, right after its old parent. Children
// of the true root stay where they are.
func (m *Mutator) Outdent(ctx context.Context, id string) (bool, error) {
	n, err := m.tree.lookup(ctx, id)
	if err != nil {
		return false, fmt.Errorf("outline: outdent: %w", err)
	}
	if n.IsRoot() {
		return false, nil
	}
	parent, err := m.tree.lookup(ctx, n.ParentID)
	if err != nil {
		return false, fmt.Errorf("outline: outdent: %w", err)
	}
	if parent.IsRoot() {
		return false, nil
	}
	return m.applyMoves(ctx, []models.Move{{ID: id, ParentID: parent.ParentID, Position: parent.Position + 1}})
}

// MoveToParent moves id under newParentID at position. Moving the root, or
// moving a note into its own subtree, is refused.
func (m *Mutator) MoveToParent(ctx context.Context, id, newParentID string, position int) (bool, error) {
	n, err := m.tree.lookup(ctx, id)
	if err != nil {
		return false, fmt.Errorf("outline: move: %w", err)
	}
	dest, err := m.tree.lookup(ctx, newParentID)
	if err != nil {
		return false, fmt.Errorf("outline: move: %w", err)
	}
	if n.IsRoot() || n.ID == dest.ID || n.IsAncestorOf(dest) {
		return false, nil
	}
	return m.applyMoves(ctx, []models.Move{{ID: id, ParentID: newParentID, Position: position}})
}

// applyMoves commits moves in one store transaction and then replays them,
// in order, on the arena. Moving the focused root, or one of its ancestors,
// reloads the view in place instead.
func (m *Mutator) applyMoves(ctx context.Context, moves []models.Move) (bool, error) {
	if len(moves) == 0 {
		return false, nil
	}
	t := m.tree

	focus := t.a.notes[t.focus]
	refocus := false
	paths := make([]string, 0, 2*len(moves))
	for _, mv := range moves {
		n, err := t.lookup(ctx, mv.ID)
		if err != nil {
			return false, fmt.Errorf("outline: move: %w", err)
		}
		if n.ID == t.focus || (focus != nil && n.IsAncestorOf(focus)) {
			refocus = true
		}
		paths = append(paths, n.Path)
	}

	if err := m.store.MoveNotes(ctx, moves); err != nil {
		return false, apperr.Store("move notes", err)
	}

	var dests []string
	for _, mv := range moves {
		if !slices.Contains(dests, mv.ParentID) {
			dests = append(dests, mv.ParentID)
		}
	}

	if refocus {
		if err := t.Load(ctx, t.focus); err != nil {
			m.logger.Warn("outline: reload moved focus failed", slog.String("id", t.focus), slog.String("error", err.Error()))
		}
	} else {
		paths = m.replayMoves(ctx, moves, paths)
	}

	for _, id := range dests {
		t.ensureExpanded(ctx, id)
	}
	t.syncFocus(ctx)
	t.pruneSelection()
	t.refreshHidden(ctx, paths...)
	for _, mv := range moves {
		m.notify.NoteChanged(NoteMoved, mv.ID)
	}
	return true, nil
}

// replayMoves applies committed moves to the arena and returns paths
// extended with the new locations.
func (m *Mutator) replayMoves(ctx context.Context, moves []models.Move, paths []string) []string {
	t := m.tree
	reload := make(map[string]bool)
	var moved []string
	for _, mv := range moves {
		if n, ok := t.a.notes[mv.ID]; ok {
			old, depth := n.ParentID, n.Depth
			n.ParentID = mv.ParentID
			t.a.relocate(n, old, mv.Position)
			if n.Path != "" {
				paths = append(paths, n.Path)
			}
			if _, kept := t.a.notes[mv.ID]; kept && n.Depth != depth {
				moved = append(moved, mv.ID)
			}
		} else {
			// Moved in from outside the view.
			if _, ok := t.a.children[mv.ParentID]; ok {
				reload[mv.ParentID] = true
			} else if _, ok := t.a.notes[mv.ParentID]; ok {
				t.a.counts[mv.ParentID]++
			}
		}
	}

	for id := range reload {
		if err := t.materialize(ctx, id, t.rowDepth(id)); err != nil {
			m.logger.Warn("outline: reload moved notes failed", slog.String("parent", id), slog.String("error", err.Error()))
		}
	}
	for _, id := range moved {
		if !t.Contains(id) {
			continue
		}
		if err := t.reshape(ctx, id); err != nil {
			m.logger.Warn("outline: reload moved subtree failed", slog.String("id", id), slog.String("error", err.Error()))
		}
	}
	return paths
}

// UpdateContent stores new content for id. force writes even when the text
// is unchanged so modification metadata moves forward.
func (m *Mutator) UpdateContent(ctx context.Context, id, content string, force bool) error {
	if err := m.store.UpdateNote(ctx, id, content, force); err != nil {
		return apperr.Store("update note", err)
	}
	m.tree.refresh(ctx, id)
	m.notify.NoteChanged(NoteUpdated, id)
	return nil
}

// CycleTask advances the task status of id one step and returns the new
// status.
func (m *Mutator) CycleTask(ctx context.Context, id string) (models.TaskStatus, error) {
	s, err := m.store.CycleTaskStatus(ctx, id)
	if err != nil {
		return "", apperr.Store("cycle task status", err)
	}
	m.tree.refresh(ctx, id)
	m.notify.NoteChanged(NoteUpdated, id)
	return s, nil
}

// SetPriority sets or clears the priority of id. Values outside the
// canonical range are refused.
func (m *Mutator) SetPriority(ctx context.Context, id string, priority *int) (bool, error) {
	if priority != nil && (*priority < models.MinPriority || *priority > models.MaxPriority) {
		return false, nil
	}
	if err := m.store.SetPriority(ctx, id, priority); err != nil {
		return false, apperr.Store("set priority", err)
	}
	m.tree.refresh(ctx, id)
	m.notify.NoteChanged(NoteUpdated, id)
	return true, nil
}

// SetTaskDate sets or clears the start or due instant of id.
func (m *Mutator) SetTaskDate(ctx context.Context, id string, kind models.DateKind, at *time.Time) error {
	if err := m.store.SetTaskDate(ctx, id, kind, at); err != nil {
		return apperr.Store("set task date", err)
	}
	m.tree.refresh(ctx, id)
	m.notify.NoteChanged(NoteUpdated, id)
	return nil
}
