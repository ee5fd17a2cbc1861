package noteservice

import (
	"context"
	"fmt"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/outline"
)

// finishFor commits an open edit before a structural change.
func (s *Service) finishFor(ctx context.Context) error {
	if err := s.edit.Finish(ctx); err != nil {
		return s.fail("finish edit", err)
	}
	return nil
}

// Indent indents ids, which must form a contiguous run of siblings.
func (s *Service) Indent(ctx context.Context, ids []string) (bool, error) {
	defer s.lock(ctx)()
	if err := s.finishFor(ctx); err != nil {
		return false, err
	}
	ok, err := s.mut.IndentMany(ctx, ids)
	if ok {
		s.reselect(ids)
	}
	return ok, s.fail("indent", err)
}

// Outdent outdents ids, which must form a contiguous run of siblings.
func (s *Service) Outdent(ctx context.Context, ids []string) (bool, error) {
	defer s.lock(ctx)()
	if err := s.finishFor(ctx); err != nil {
		return false, err
	}
	ok, err := s.mut.OutdentMany(ctx, ids)
	if ok {
		s.reselect(ids)
	}
	return ok, s.fail("outdent", err)
}

// Move places id under parentID at position.
func (s *Service) Move(ctx context.Context, id, parentID string, position int) (bool, error) {
	defer s.lock(ctx)()
	if err := s.finishFor(ctx); err != nil {
		return false, err
	}
	ok, err := s.mut.MoveToParent(ctx, id, parentID, position)
	return ok, s.fail("move", err)
}

// Drop moves the dragged ids relative to targetID. The moved notes are
// re-selected before the next operation.
func (s *Service) Drop(ctx context.Context, ids []string, targetID, where string) (bool, error) {
	defer s.lock(ctx)()
	pos, ok := outline.ParseDropPosition(where)
	if !ok {
		return false, fmt.Errorf("noteservice: drop position %q: %w", where, apperr.ErrRejected)
	}
	if err := s.finishFor(ctx); err != nil {
		return false, err
	}
	applied, err := s.mut.Drop(ctx, ids, targetID, pos)
	if applied {
		s.reselect(ids)
	}
	return applied, s.fail("drop", err)
}
