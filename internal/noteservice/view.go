package noteservice

import (
	"context"
	"fmt"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/outline"
)

// View is a snapshot of what the user sees.
type View struct {
	Focus       string          `json:"focus"`
	MaxDepth    int             `json:"max_depth"`
	Breadcrumbs []outline.Crumb `json:"breadcrumbs"`
	Rows        []outline.Row   `json:"rows"`
	Selection   []string        `json:"selection"`
	Current     string          `json:"current,omitempty"`
	Edit        EditState       `json:"edit"`
}

// View returns the current view.
func (s *Service) View(ctx context.Context) (*View, error) {
	defer s.lock(ctx)()
	return s.view(ctx)
}

func (s *Service) view(ctx context.Context) (*View, error) {
	crumbs, err := s.tree.Breadcrumbs(ctx)
	if err != nil {
		return nil, s.fail("breadcrumbs", err)
	}
	rows := s.tree.Rows()
	if rows == nil {
		rows = []outline.Row{}
	}
	sel := s.tree.Selection()
	if sel == nil {
		sel = []string{}
	}
	return &View{
		Focus:       s.tree.Focus(),
		MaxDepth:    s.tree.MaxDepth(),
		Breadcrumbs: crumbs,
		Rows:        rows,
		Selection:   sel,
		Current:     s.tree.Current(),
		Edit:        s.editState(),
	}, nil
}

// Breadcrumbs returns the ancestor chain of the focused root.
func (s *Service) Breadcrumbs(ctx context.Context) ([]outline.Crumb, error) {
	defer s.lock(ctx)()
	crumbs, err := s.tree.Breadcrumbs(ctx)
	return crumbs, s.fail("breadcrumbs", err)
}

// Trail returns the ancestor chain of any note, down to the note itself.
func (s *Service) Trail(ctx context.Context, id string) ([]outline.Crumb, error) {
	defer s.lock(ctx)()
	crumbs, err := s.tree.Trail(ctx, id)
	return crumbs, s.fail("trail", err)
}

// Focus re-roots the view at id ("" for the true root).
func (s *Service) Focus(ctx context.Context, id string) (bool, error) {
	defer s.lock(ctx)()
	if err := s.edit.Finish(ctx); err != nil {
		return false, s.fail("finish edit", err)
	}
	ok, err := s.tree.FocusOn(ctx, id)
	return ok, s.fail("focus", err)
}

// FocusUp moves the focus to the parent of the focused root.
func (s *Service) FocusUp(ctx context.Context) (bool, error) {
	defer s.lock(ctx)()
	if err := s.edit.Finish(ctx); err != nil {
		return false, s.fail("finish edit", err)
	}
	ok, err := s.tree.FocusUp(ctx)
	return ok, s.fail("focus up", err)
}

// SetMaxDepth changes how many levels are loaded below the top level.
func (s *Service) SetMaxDepth(ctx context.Context, depth int) error {
	defer s.lock(ctx)()
	return s.fail("set max depth", s.tree.SetMaxDepth(ctx, depth))
}

// SetExpanded expands or collapses a visible note.
func (s *Service) SetExpanded(ctx context.Context, id string, expanded bool) (bool, error) {
	defer s.lock(ctx)()
	if !s.tree.Contains(id) {
		return false, fmt.Errorf("noteservice: %s not in view: %w", id, apperr.ErrNotFound)
	}
	var (
		ok  bool
		err error
	)
	if expanded {
		ok, err = s.tree.Expand(ctx, id)
	} else {
		ok, err = s.tree.Collapse(ctx, id)
	}
	return ok, s.fail("set expanded", err)
}

// ExpandPlaceholder loads one more level under the depth-limited parentID.
func (s *Service) ExpandPlaceholder(ctx context.Context, parentID string) (bool, error) {
	defer s.lock(ctx)()
	ok, err := s.tree.ExpandPlaceholder(ctx, parentID)
	return ok, s.fail("expand placeholder", err)
}

// Select replaces the selection.
func (s *Service) Select(ctx context.Context, ids []string, current string) []string {
	defer s.lock(ctx)()
	s.tree.RestoreSelection(ids, current)
	return s.tree.Selection()
}
