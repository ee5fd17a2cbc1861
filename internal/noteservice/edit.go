package noteservice

import (
	"context"
	"fmt"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/editor"
)

// EditState describes the edit session.
type EditState struct {
	State     string   `json:"state"`
	NoteID    string   `json:"note_id,omitempty"`
	Buffer    string   `json:"buffer"`
	Cursor    int      `json:"cursor"`
	PrefixLen int      `json:"prefix_len"`
	Warnings  []string `json:"warnings,omitempty"`
}

func (s *Service) editState() EditState {
	return EditState{
		State:     s.edit.State().String(),
		NoteID:    s.edit.NoteID(),
		Buffer:    s.edit.Buffer(),
		Cursor:    s.edit.Cursor(),
		PrefixLen: s.edit.PrefixLen(),
		Warnings:  s.edit.Warnings(),
	}
}

// EditEntry says where an edit starts. Offset wins over At when set;
// Line/Column describe a click.
type EditEntry struct {
	At     string
	Offset *int
	Line   int
	Column int
}

func (e EditEntry) point() (editor.EntryPoint, error) {
	if e.Offset != nil {
		return editor.AtOffset(*e.Offset), nil
	}
	switch e.At {
	case "", "end":
		return editor.AtEnd(), nil
	case "start":
		return editor.AtStart(), nil
	case "click":
		return editor.AtClick(e.Line, e.Column), nil
	}
	return editor.EntryPoint{}, fmt.Errorf("noteservice: entry point %q: %w", e.At, apperr.ErrRejected)
}

// Edit returns the edit session state.
func (s *Service) Edit(ctx context.Context) EditState {
	defer s.lock(ctx)()
	return s.editState()
}

// StartEdit opens an edit on id, committing any open edit first.
func (s *Service) StartEdit(ctx context.Context, id string, entry EditEntry) (EditState, error) {
	defer s.lock(ctx)()
	at, err := entry.point()
	if err != nil {
		return s.editState(), err
	}
	if err := s.edit.Start(ctx, id, at); err != nil {
		return s.editState(), s.fail("start edit", err)
	}
	return s.editState(), nil
}

// EditInput types text at the cursor, or replaces the content when replace
// is set.
func (s *Service) EditInput(ctx context.Context, text string, replace bool) (EditState, error) {
	defer s.lock(ctx)()
	if s.edit.State() != editor.Editing {
		return s.editState(), fmt.Errorf("noteservice: no open edit: %w", apperr.ErrConflict)
	}
	if replace {
		s.edit.SetContent(text)
	} else {
		s.edit.Insert(text)
	}
	return s.editState(), nil
}

// EditCursor moves the cursor to a content offset.
func (s *Service) EditCursor(ctx context.Context, offset int) EditState {
	defer s.lock(ctx)()
	s.edit.MoveCursor(offset)
	return s.editState()
}

// EditKey applies a named editing key.
func (s *Service) EditKey(ctx context.Context, name string) (bool, EditState, error) {
	defer s.lock(ctx)()
	k, ok := editor.ParseKey(name)
	if !ok {
		return false, s.editState(), fmt.Errorf("noteservice: key %q: %w", name, apperr.ErrRejected)
	}
	handled, err := s.edit.HandleKey(ctx, k)
	return handled, s.editState(), s.fail("edit key", err)
}

// FinishEdit commits and closes the edit session.
func (s *Service) FinishEdit(ctx context.Context) (EditState, error) {
	defer s.lock(ctx)()
	err := s.edit.Finish(ctx)
	return s.editState(), s.fail("finish edit", err)
}

// DiscardEdit closes the edit session without saving.
func (s *Service) DiscardEdit(ctx context.Context) EditState {
	defer s.lock(ctx)()
	s.edit.Discard()
	return s.editState()
}
