// Package editor implements the edit session: the single note currently
// accepting free-text input, its buffer and cursor, and the keys that
// finish it, restructure around it, or move it to a neighbouring note.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/outline"
	"github.com/starford/arbor/internal/parser"
)

// State is the session state.
type State int

const (
	Idle State = iota
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "idle"
}

// EventKind names a session transition.
type EventKind string

const (
	EditStarted  EventKind = "started"
	EditFinished EventKind = "finished"
)

// ContentParser parses the text of a task before it is stored.
type ContentParser interface {
	Parse(text string) parser.Result
}

// Session is the edit state machine. There is at most one per controller;
// starting an edit on another note finishes the open one first.
type Session struct {
	mut    *outline.Mutator
	tree   *outline.Tree
	parser ContentParser
	logger *slog.Logger
	notify func(kind EventKind, id string)

	state     State
	noteID    string
	status    models.TaskStatus
	stored    string
	buf       []rune
	cursor    int
	prefixLen int
	preferred int
	warnings  []string
}

// New returns an idle session. notify may be nil.
func New(mut *outline.Mutator, p ContentParser, logger *slog.Logger, notify func(EventKind, string)) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if notify == nil {
		notify = func(EventKind, string) {}
	}
	return &Session{mut: mut, tree: mut.Tree(), parser: p, logger: logger, notify: notify, preferred: noCol}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// NoteID returns the note being edited, or "".
func (s *Session) NoteID() string { return s.noteID }

// Buffer returns the editable text, glyph prefix included.
func (s *Session) Buffer() string { return string(s.buf) }

// Cursor returns the cursor offset in the buffer.
func (s *Session) Cursor() int { return s.cursor }

// PrefixLen returns the length of the glyph prefix.
func (s *Session) PrefixLen() int { return s.prefixLen }

// Warnings returns the parser warnings of the last finished edit.
func (s *Session) Warnings() []string { return slices.Clone(s.warnings) }

// Start opens an edit on id, finishing any open session first.
func (s *Session) Start(ctx context.Context, id string, at EntryPoint) error {
	if err := s.Finish(ctx); err != nil {
		return err
	}
	n, ok := s.tree.Note(id)
	if !ok {
		return fmt.Errorf("editor: start %s: %w", id, apperr.ErrNotFound)
	}
	if n.IsRoot() {
		return fmt.Errorf("editor: start: %w", apperr.ErrRejected)
	}

	glyph := []rune(n.TaskStatus.Glyph())
	s.state = Editing
	s.noteID = n.ID
	s.status = n.TaskStatus
	s.stored = n.Content
	s.buf = append(glyph, []rune(n.Content)...)
	s.prefixLen = len(glyph)
	s.place(at)
	if at.kind != entryFirstLine && at.kind != entryLastLine {
		s.preferred = noCol
	}
	s.tree.SetCurrent(n.ID)
	s.notify(EditStarted, n.ID)
	return nil
}

func (s *Session) place(at EntryPoint) {
	switch at.kind {
	case entryOffset:
		s.cursor = min(s.prefixLen+max(at.offset, 0), len(s.buf))
	case entryStart:
		s.cursor = s.prefixLen
	case entryEnd:
		s.cursor = len(s.buf)
	case entryClick:
		s.cursor = offsetAt(s.buf, at.line, at.col, s.prefixLen)
	case entryFirstLine:
		s.cursor = offsetAt(s.buf, 0, at.col, s.prefixLen)
	case entryLastLine:
		s.cursor = offsetAt(s.buf, len(lineStarts(s.buf))-1, at.col, s.prefixLen)
	}
}

// Insert types text at the cursor.
func (s *Session) Insert(text string) {
	if s.state != Editing {
		return
	}
	r := []rune(text)
	s.buf = slices.Insert(s.buf, s.cursor, r...)
	s.cursor += len(r)
	s.preferred = noCol
}

// SetContent replaces the content after the glyph prefix and moves the
// cursor to the end.
func (s *Session) SetContent(text string) {
	if s.state != Editing {
		return
	}
	s.buf = append(s.buf[:s.prefixLen:s.prefixLen], []rune(text)...)
	s.cursor = len(s.buf)
	s.preferred = noCol
}

// MoveCursor sets the cursor to a content offset.
func (s *Session) MoveCursor(offset int) {
	if s.state != Editing {
		return
	}
	s.place(AtOffset(offset))
	s.preferred = noCol
}

// Discard closes the session without saving.
func (s *Session) Discard() {
	if s.state != Editing {
		return
	}
	id := s.noteID
	s.reset()
	s.notify(EditFinished, id)
}

func (s *Session) reset() {
	s.state = Idle
	s.noteID = ""
	s.status = models.TaskNone
	s.stored = ""
	s.buf = nil
	s.cursor = 0
	s.prefixLen = 0
}

// Finish stores the buffer and closes the session. Task text goes through
// the content parser; plain notes are stored verbatim. The write is forced
// whenever the text differs from what was stored, even if parsing reduces
// it back to the same content. A note deleted meanwhile is dropped quietly.
// On a store failure the session stays open so the text is not lost.
func (s *Session) Finish(ctx context.Context) error {
	if s.state != Editing {
		return nil
	}
	id := s.noteID
	text := string(s.buf[s.prefixLen:])
	force := text != s.stored

	content := text
	var res parser.Result
	if s.status.IsTask() && s.parser != nil {
		res = s.parser.Parse(text)
		content = res.Content
	}

	if err := s.mut.UpdateContent(ctx, id, content, force); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.logger.Info("editor: edited note is gone", slog.String("id", id))
			s.reset()
			s.notify(EditFinished, id)
			return nil
		}
		return fmt.Errorf("editor: finish: %w", err)
	}
	if res.Priority != nil {
		if _, err := s.mut.SetPriority(ctx, id, res.Priority); err != nil {
			return fmt.Errorf("editor: finish: %w", err)
		}
	}
	if res.Start != nil {
		if err := s.mut.SetTaskDate(ctx, id, models.DateStart, res.Start); err != nil {
			return fmt.Errorf("editor: finish: %w", err)
		}
	}
	if res.Due != nil {
		if err := s.mut.SetTaskDate(ctx, id, models.DateDue, res.Due); err != nil {
			return fmt.Errorf("editor: finish: %w", err)
		}
	}

	s.reset()
	s.warnings = res.Warnings
	s.notify(EditFinished, id)
	return nil
}

// HandleKey applies an editing key. It reports false when the key has no
// effect in the current state.
func (s *Session) HandleKey(ctx context.Context, k Key) (bool, error) {
	if s.state != Editing {
		return false, nil
	}
	switch k {
	case KeyTab, KeyShiftTab:
		return s.restructure(ctx, k == KeyTab)
	case KeyCtrlSpace:
		return s.cycle(ctx)
	case KeyUp:
		return s.vertical(ctx, -1)
	case KeyDown:
		return s.vertical(ctx, 1)
	case KeyLeft:
		if s.cursor > s.prefixLen {
			s.cursor--
		}
		s.preferred = noCol
		return true, nil
	case KeyRight:
		if s.cursor < len(s.buf) {
			s.cursor++
		}
		s.preferred = noCol
		return true, nil
	case KeyBackspace:
		return s.backspace(ctx)
	case KeyEnter, KeyCtrlEnter:
		return s.split(ctx, k == KeyCtrlEnter)
	case KeyShiftEnter:
		s.Insert("\n")
		return true, nil
	case KeyEscape:
		return true, s.Finish(ctx)
	}
	return false, nil
}

// restructure finishes, indents or outdents the edited note (or the whole
// selection when it includes the note) and reopens the edit on a single
// moved note at the same content offset.
func (s *Session) restructure(ctx context.Context, indent bool) (bool, error) {
	id := s.noteID
	offset := s.cursor - s.prefixLen
	ids := []string{id}
	if sel := s.tree.Selection(); len(sel) > 1 && slices.Contains(sel, id) {
		ids = sel
	}
	if err := s.Finish(ctx); err != nil {
		return false, err
	}

	var applied bool
	var err error
	if indent {
		applied, err = s.mut.IndentMany(ctx, ids)
	} else {
		applied, err = s.mut.OutdentMany(ctx, ids)
	}
	if err != nil {
		return false, err
	}
	if len(ids) == 1 && s.tree.Contains(id) {
		if err := s.Start(ctx, id, AtOffset(offset)); err != nil {
			return applied, err
		}
	}
	return applied, nil
}

// cycle advances the task status and rewrites the glyph prefix in place.
func (s *Session) cycle(ctx context.Context) (bool, error) {
	status, err := s.mut.CycleTask(ctx, s.noteID)
	if err != nil {
		return false, err
	}
	glyph := []rune(status.Glyph())
	offset := s.cursor - s.prefixLen
	s.buf = append(glyph, s.buf[s.prefixLen:]...)
	s.prefixLen = len(glyph)
	s.cursor = min(s.prefixLen+max(offset, 0), len(s.buf))
	s.status = status
	return true, nil
}

// vertical moves the cursor one line up (dir -1) or down (dir 1). Past the
// first or last line the edit moves to the neighbouring visible note,
// keeping the preferred column.
func (s *Session) vertical(ctx context.Context, dir int) (bool, error) {
	line, col := position(s.buf, s.cursor)
	if s.preferred != noCol {
		col = s.preferred
	}
	last := len(lineStarts(s.buf)) - 1
	target := line + dir
	if target >= 0 && target <= last {
		s.cursor = offsetAt(s.buf, target, col, s.prefixLen)
		s.preferred = col
		return true, nil
	}

	var next string
	var ok bool
	var at EntryPoint
	if dir < 0 {
		next, ok = s.tree.Prev(s.noteID)
		at = EntryPoint{kind: entryLastLine, col: col}
	} else {
		next, ok = s.tree.Next(s.noteID)
		at = EntryPoint{kind: entryFirstLine, col: col}
	}
	if !ok {
		return false, nil
	}
	if n, found := s.tree.Note(next); !found || n.IsRoot() {
		return false, nil
	}
	s.preferred = col
	return true, s.Start(ctx, next, at)
}

// backspace deletes the character before the cursor. On an empty note it
// drops the edit, deletes the note and continues at the end of the note
// above.
func (s *Session) backspace(ctx context.Context) (bool, error) {
	if len(s.buf) > s.prefixLen {
		if s.cursor > s.prefixLen {
			s.buf = slices.Delete(s.buf, s.cursor-1, s.cursor)
			s.cursor--
		}
		s.preferred = noCol
		return true, nil
	}

	id := s.noteID
	prev, hasPrev := s.tree.Prev(id)
	s.Discard()
	if _, err := s.mut.Delete(ctx, id); err != nil {
		return false, err
	}
	if !hasPrev || !s.tree.Contains(prev) {
		return true, nil
	}
	if n, _ := s.tree.Note(prev); n.IsRoot() {
		return true, nil
	}
	s.preferred = colEnd
	return true, s.Start(ctx, prev, EntryPoint{kind: entryLastLine, col: colEnd})
}

// split finishes and opens an edit on a new sibling (or first child).
func (s *Session) split(ctx context.Context, child bool) (bool, error) {
	id := s.noteID
	if err := s.Finish(ctx); err != nil {
		return false, err
	}
	var newID string
	var err error
	if child {
		newID, err = s.mut.CreateChild(ctx, id, "", 0)
	} else {
		newID, err = s.mut.CreateSibling(ctx, id, "")
	}
	if err != nil {
		return false, err
	}
	if !s.tree.Contains(newID) {
		return true, nil
	}
	return true, s.Start(ctx, newID, AtStart())
}
