package noteservice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/checksum"
	"github.com/starford/arbor/internal/models"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	*models.Note
	Checksum   string `json:"checksum"`
	ChildCount int    `json:"child_count"`
}

func (s *Service) detail(ctx context.Context, id string) (*NoteDetail, error) {
	n, err := s.backend.GetNote(ctx, id)
	if err != nil {
		return nil, s.fail("get note", apperr.Store("get note", err))
	}
	kids, err := s.backend.NextChildPosition(ctx, id)
	if err != nil {
		return nil, s.fail("next child position", apperr.Store("next child position", err))
	}
	return &NoteDetail{Note: n, Checksum: checksum.Content(n.Content), ChildCount: kids}, nil
}

// GetNote returns one note with its checksum.
func (s *Service) GetNote(ctx context.Context, id string) (*NoteDetail, error) {
	defer s.lock(ctx)()
	return s.detail(ctx, id)
}

// Children returns the ordered children of parentID.
func (s *Service) Children(ctx context.Context, parentID string) ([]*models.Note, error) {
	defer s.lock(ctx)()
	kids, err := s.backend.GetChildren(ctx, parentID)
	if err != nil {
		return nil, s.fail("get children", apperr.Store("get children", err))
	}
	return kids, nil
}

// CreateNote inserts a plain note under parentID at position (negative
// appends).
func (s *Service) CreateNote(ctx context.Context, parentID, content string, position int) (*NoteDetail, error) {
	defer s.lock(ctx)()
	if parentID == "" {
		parentID = s.tree.Focus()
	}
	id, err := s.mut.CreateChild(ctx, parentID, content, position)
	if err != nil {
		return nil, s.fail("create note", err)
	}
	return s.detail(ctx, id)
}

// CreateSibling inserts a plain note right after afterID.
func (s *Service) CreateSibling(ctx context.Context, afterID, content string) (*NoteDetail, error) {
	defer s.lock(ctx)()
	id, err := s.mut.CreateSibling(ctx, afterID, content)
	if err != nil {
		return nil, s.fail("create sibling", err)
	}
	return s.detail(ctx, id)
}

// AddTask appends an active task under parentID. text is read with the task
// mini-language, so "pay rent due friday p1" sets the due date and priority.
func (s *Service) AddTask(ctx context.Context, parentID, text string) (*NoteDetail, []string, error) {
	defer s.lock(ctx)()
	if parentID == "" {
		parentID = s.tree.Focus()
	}
	res := s.parser.Parse(text)
	id, err := s.mut.AppendChild(ctx, parentID, res.Content)
	if err != nil {
		return nil, nil, s.fail("add task", err)
	}
	if _, err := s.mut.CycleTask(ctx, id); err != nil {
		return nil, nil, s.fail("add task", err)
	}
	if err := s.applyParsed(ctx, id, res.Priority, res.Start, res.Due); err != nil {
		return nil, nil, err
	}
	d, err := s.detail(ctx, id)
	return d, res.Warnings, err
}

func (s *Service) applyParsed(ctx context.Context, id string, priority *int, start, due *time.Time) error {
	if priority != nil {
		if _, err := s.mut.SetPriority(ctx, id, priority); err != nil {
			return s.fail("set priority", err)
		}
	}
	if start != nil {
		if err := s.mut.SetTaskDate(ctx, id, models.DateStart, start); err != nil {
			return s.fail("set start", err)
		}
	}
	if due != nil {
		if err := s.mut.SetTaskDate(ctx, id, models.DateDue, due); err != nil {
			return s.fail("set due", err)
		}
	}
	return nil
}

// UpdateNote replaces the content of id. A non-empty ifMatch must equal the
// checksum of the stored content. Task content is parsed like a finished
// edit; plain content is stored as given. A note open in the edit session
// cannot be updated from outside it.
func (s *Service) UpdateNote(ctx context.Context, id, content, ifMatch string) (*NoteDetail, []string, error) {
	defer s.lock(ctx)()
	if s.edit.NoteID() == id {
		return nil, nil, fmt.Errorf("noteservice: %s is being edited: %w", id, apperr.ErrConflict)
	}
	n, err := s.backend.GetNote(ctx, id)
	if err != nil {
		return nil, nil, s.fail("get note", apperr.Store("get note", err))
	}
	if !checksum.Match(ifMatch, n.Content) {
		return nil, nil, apperr.ErrConflict
	}

	stored := content
	var warnings []string
	var priority *int
	var start, due *time.Time
	if n.TaskStatus.IsTask() {
		res := s.parser.Parse(content)
		stored, warnings = res.Content, res.Warnings
		priority, start, due = res.Priority, res.Start, res.Due
	}
	if err := s.mut.UpdateContent(ctx, id, stored, content != n.Content); err != nil {
		return nil, nil, s.fail("update note", err)
	}
	if err := s.applyParsed(ctx, id, priority, start, due); err != nil {
		return nil, nil, err
	}
	d, err := s.detail(ctx, id)
	return d, warnings, err
}

// DeleteNote removes id and its subtree. An edit open on the note is
// dropped first.
func (s *Service) DeleteNote(ctx context.Context, id string) (bool, error) {
	defer s.lock(ctx)()
	if s.edit.NoteID() == id {
		s.edit.Discard()
	}
	ok, err := s.mut.Delete(ctx, id)
	return ok, s.fail("delete note", err)
}

// CycleTask advances the task status of id.
func (s *Service) CycleTask(ctx context.Context, id string) (models.TaskStatus, error) {
	defer s.lock(ctx)()
	if s.edit.NoteID() == id {
		return "", fmt.Errorf("noteservice: %s is being edited: %w", id, apperr.ErrConflict)
	}
	st, err := s.mut.CycleTask(ctx, id)
	return st, s.fail("cycle task", err)
}

// TaskUpdate changes the task fields of a note. Nil fields are left alone.
// Dates are phrases such as "tomorrow 5pm" or ISO-8601 text; "none"
// clears a date.
type TaskUpdate struct {
	Priority      *int
	ClearPriority bool
	Start         *string
	Due           *string
}

// SetTask applies u to id. It reports false without changing anything when
// a priority is out of range or a date phrase does not resolve.
func (s *Service) SetTask(ctx context.Context, id string, u TaskUpdate) (bool, error) {
	defer s.lock(ctx)()

	var start, due *time.Time
	var clearStart, clearDue bool
	var ok bool
	if start, clearStart, ok = s.resolveDate(u.Start); !ok {
		return false, nil
	}
	if due, clearDue, ok = s.resolveDate(u.Due); !ok {
		return false, nil
	}
	if u.Priority != nil && (*u.Priority < models.MinPriority || *u.Priority > models.MaxPriority) {
		return false, nil
	}

	if u.ClearPriority {
		if _, err := s.mut.SetPriority(ctx, id, nil); err != nil {
			return false, s.fail("clear priority", err)
		}
	}
	if clearStart {
		if err := s.mut.SetTaskDate(ctx, id, models.DateStart, nil); err != nil {
			return false, s.fail("clear start", err)
		}
	}
	if clearDue {
		if err := s.mut.SetTaskDate(ctx, id, models.DateDue, nil); err != nil {
			return false, s.fail("clear due", err)
		}
	}
	if err := s.applyParsed(ctx, id, u.Priority, start, due); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) resolveDate(phrase *string) (at *time.Time, clear, ok bool) {
	if phrase == nil {
		return nil, false, true
	}
	p := strings.TrimSpace(*phrase)
	if p == "" || strings.EqualFold(p, "none") {
		return nil, true, true
	}
	t, found := s.resolver.Resolve(p)
	if !found {
		return nil, false, false
	}
	return &t, false, true
}

// Search finds notes by content.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	defer s.lock(ctx)()
	res, err := s.backend.Search(ctx, query, limit)
	if err != nil {
		return nil, s.fail("search", apperr.Store("search", err))
	}
	if res == nil {
		res = []models.SearchResult{}
	}
	return res, nil
}
