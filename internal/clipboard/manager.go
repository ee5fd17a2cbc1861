package clipboard

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/outline"
)

// Manager holds the clipboard contents and pastes them through the outline
// mutator, so pasted notes show up in the view like any other new note.
type Manager struct {
	mut    *outline.Mutator
	reader Reader
	logger *slog.Logger
	indent int
	sink   TextSink

	snaps []Snapshot
	cut   []*models.Note
	text  string
}

// Option configures a Manager.
type Option func(*Manager)

// WithIndent sets the spaces per level used for outline text.
func WithIndent(n int) Option { return func(m *Manager) { m.indent = n } }

// WithSink mirrors copied text to sink.
func WithSink(s TextSink) Option { return func(m *Manager) { m.sink = s } }

// WithLogger sets the logger for best-effort failures.
func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.logger = l } }

// NewManager returns an empty clipboard.
func NewManager(mut *outline.Mutator, reader Reader, opts ...Option) *Manager {
	m := &Manager{mut: mut, reader: reader, indent: DefaultIndent, logger: slog.Default()}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Copy snapshots the selected notes and their subtrees. Notes whose ancestor
// is also selected are covered by that ancestor. It returns how many
// top-level notes were taken.
func (m *Manager) Copy(ctx context.Context, ids []string) (int, error) {
	notes, snaps, err := m.take(ctx, ids)
	if err != nil || len(notes) == 0 {
		return 0, err
	}
	m.snaps, m.cut = snaps, nil
	m.publish()
	return len(snaps), nil
}

// Cut is Copy that also removes the originals once a later paste has
// recreated them all.
func (m *Manager) Cut(ctx context.Context, ids []string) (int, error) {
	notes, snaps, err := m.take(ctx, ids)
	if err != nil || len(notes) == 0 {
		return 0, err
	}
	if slices.ContainsFunc(notes, (*models.Note).IsRoot) {
		return 0, nil
	}
	m.snaps, m.cut = snaps, notes
	m.publish()
	return len(snaps), nil
}

func (m *Manager) take(ctx context.Context, ids []string) ([]*models.Note, []Snapshot, error) {
	notes, err := m.mut.Tree().Normalize(ctx, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("clipboard: %w", err)
	}
	snaps := make([]Snapshot, 0, len(notes))
	for _, n := range notes {
		s, err := capture(ctx, m.reader, n)
		if err != nil {
			return nil, nil, err
		}
		snaps = append(snaps, s)
	}
	return notes, snaps, nil
}

func (m *Manager) publish() {
	m.text = Render(m.snaps, m.indent)
	if m.sink == nil {
		return
	}
	if err := m.sink.WriteText(m.text); err != nil {
		m.logger.Warn("clipboard: system clipboard write failed", slog.String("error", err.Error()))
	}
}

// Empty reports whether there is nothing to paste.
func (m *Manager) Empty() bool { return len(m.snaps) == 0 }

// Pending reports whether the contents came from a cut not yet pasted.
func (m *Manager) Pending() bool { return len(m.cut) > 0 }

// Text returns the outline text of the clipboard contents.
func (m *Manager) Text() string { return m.text }

// Snapshots returns the clipboard contents.
func (m *Manager) Snapshots() []Snapshot { return slices.Clone(m.snaps) }

// Paste recreates the clipboard contents as the last children of targetID
// and returns the ids of the new top-level notes. After a cut, the
// originals are deleted only once every note has been recreated, and the
// clipboard is emptied; pasting into a cut note's own subtree is refused.
// An original that cannot be deleted has its copy removed again and stays
// on the clipboard, so a later paste moves just what is left.
func (m *Manager) Paste(ctx context.Context, targetID string) ([]string, error) {
	if m.Empty() {
		return nil, nil
	}
	if len(m.cut) > 0 {
		target, err := m.reader.GetNote(ctx, targetID)
		if err != nil {
			return nil, fmt.Errorf("clipboard: paste: %w", err)
		}
		for _, n := range m.cut {
			if n.ID == target.ID || n.IsAncestorOf(target) {
				return nil, nil
			}
		}
	}

	ids, err := m.Import(ctx, targetID, m.snaps)
	if err != nil {
		return nil, err
	}
	if len(m.cut) == 0 {
		return ids, nil
	}

	var (
		moved []string
		left  []*models.Note
		snaps []Snapshot
		first error
	)
	for i, n := range m.cut {
		if _, err := m.mut.Delete(ctx, n.ID); err != nil {
			if first == nil {
				first = fmt.Errorf("clipboard: remove cut original %s: %w", n.ID, err)
			}
			m.rollback(ctx, ids[i:i+1])
			left = append(left, n)
			snaps = append(snaps, m.snaps[i])
			continue
		}
		moved = append(moved, ids[i])
	}
	if first != nil {
		m.snaps, m.cut = snaps, left
		m.publish()
		return moved, first
	}
	m.snaps, m.cut, m.text = nil, nil, ""
	return ids, nil
}

// Import recreates snaps as the last children of parentID. Task status is
// restored by cycling the new note the same way a user would. If any note
// fails, the top-level notes created so far are removed again.
func (m *Manager) Import(ctx context.Context, parentID string, snaps []Snapshot) ([]string, error) {
	var created []string
	for _, s := range snaps {
		id, err := m.recreate(ctx, parentID, s)
		if id != "" {
			created = append(created, id)
		}
		if err != nil {
			m.rollback(ctx, created)
			return nil, err
		}
	}
	return created, nil
}

func (m *Manager) recreate(ctx context.Context, parentID string, s Snapshot) (string, error) {
	id, err := m.mut.AppendChild(ctx, parentID, s.Content)
	if err != nil {
		return "", fmt.Errorf("clipboard: recreate note: %w", err)
	}
	for range models.CycleSteps(s.TaskStatus) {
		if _, err := m.mut.CycleTask(ctx, id); err != nil {
			return id, fmt.Errorf("clipboard: restore task status: %w", err)
		}
	}
	if s.TaskStatus.IsTask() {
		if s.Priority != nil {
			if _, err := m.mut.SetPriority(ctx, id, s.Priority); err != nil {
				return id, fmt.Errorf("clipboard: restore priority: %w", err)
			}
		}
		for kind, at := range map[models.DateKind]*time.Time{models.DateStart: s.Start, models.DateDue: s.Due} {
			if at == nil {
				continue
			}
			if err := m.mut.SetTaskDate(ctx, id, kind, at); err != nil {
				return id, fmt.Errorf("clipboard: restore %s date: %w", kind, err)
			}
		}
	}
	for _, c := range s.Children {
		if _, err := m.recreate(ctx, id, c); err != nil {
			return id, err
		}
	}
	return id, nil
}

func (m *Manager) rollback(ctx context.Context, ids []string) {
	for _, id := range ids {
		if _, err := m.mut.Delete(ctx, id); err != nil {
			m.logger.Warn("clipboard: undo partial paste failed", slog.String("id", id), slog.String("error", err.Error()))
		}
	}
}
