package noteservice

import (
	"context"
	"fmt"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/clipboard"
)

// Outline formats understood by import and export.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// ClipboardState describes the clipboard contents.
type ClipboardState struct {
	Count   int    `json:"count"`
	Pending bool   `json:"pending_cut"`
	Text    string `json:"text"`
}

func (s *Service) clipboardState() ClipboardState {
	return ClipboardState{Count: len(s.clip.Snapshots()), Pending: s.clip.Pending(), Text: s.clip.Text()}
}

// Clipboard returns the clipboard contents.
func (s *Service) Clipboard(ctx context.Context) ClipboardState {
	defer s.lock(ctx)()
	return s.clipboardState()
}

// Copy snapshots ids (or the current selection when ids is empty).
func (s *Service) Copy(ctx context.Context, ids []string) (ClipboardState, error) {
	defer s.lock(ctx)()
	if len(ids) == 0 {
		ids = s.tree.Selection()
	}
	if err := s.finishFor(ctx); err != nil {
		return ClipboardState{}, err
	}
	_, err := s.clip.Copy(ctx, ids)
	return s.clipboardState(), s.fail("copy", err)
}

// Cut snapshots ids (or the selection); they are removed on the next paste.
func (s *Service) Cut(ctx context.Context, ids []string) (ClipboardState, error) {
	defer s.lock(ctx)()
	if len(ids) == 0 {
		ids = s.tree.Selection()
	}
	if err := s.finishFor(ctx); err != nil {
		return ClipboardState{}, err
	}
	_, err := s.clip.Cut(ctx, ids)
	return s.clipboardState(), s.fail("cut", err)
}

// Paste recreates the clipboard under targetID (or the current note, or
// the focused root) and selects the new notes.
func (s *Service) Paste(ctx context.Context, targetID string) ([]string, error) {
	defer s.lock(ctx)()
	if targetID == "" {
		targetID = s.tree.Current()
	}
	if targetID == "" {
		targetID = s.tree.Focus()
	}
	if err := s.finishFor(ctx); err != nil {
		return nil, err
	}
	ids, err := s.clip.Paste(ctx, targetID)
	if err != nil {
		return nil, s.fail("paste", err)
	}
	if ids == nil {
		ids = []string{}
	}
	s.reselect(ids)
	return ids, nil
}

// ImportOutline creates the notes described by data under parentID. format
// is FormatText (indented outline) or FormatYAML.
func (s *Service) ImportOutline(ctx context.Context, parentID string, data []byte, format string) ([]string, error) {
	defer s.lock(ctx)()
	if parentID == "" {
		parentID = s.tree.Focus()
	}
	var snaps []clipboard.Snapshot
	switch format {
	case FormatYAML:
		var err error
		if snaps, err = clipboard.UnmarshalYAML(data); err != nil {
			return nil, fmt.Errorf("noteservice: import: %w: %w", apperr.ErrRejected, err)
		}
	case FormatText, "":
		snaps = clipboard.Parse(string(data), s.indent)
		s.parseTasks(snaps)
	default:
		return nil, fmt.Errorf("noteservice: import format %q: %w", format, apperr.ErrRejected)
	}
	ids, err := s.clip.Import(ctx, parentID, snaps)
	if err != nil {
		return nil, s.fail("import", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// parseTasks reads task lines of imported outline text with the task
// mini-language.
func (s *Service) parseTasks(snaps []clipboard.Snapshot) {
	for i := range snaps {
		sn := &snaps[i]
		if sn.TaskStatus.IsTask() {
			res := s.parser.Parse(sn.Content)
			sn.Content, sn.Priority, sn.Start, sn.Due = res.Content, res.Priority, res.Start, res.Due
		}
		s.parseTasks(sn.Children)
	}
}

// ExportOutline renders the subtree of id.
func (s *Service) ExportOutline(ctx context.Context, id, format string) ([]byte, error) {
	defer s.lock(ctx)()
	if err := s.finishFor(ctx); err != nil {
		return nil, err
	}
	snap, err := clipboard.Capture(ctx, s.backend, id)
	if err != nil {
		return nil, s.fail("export", apperr.Store("export", err))
	}
	switch format {
	case FormatYAML:
		return clipboard.MarshalYAML([]clipboard.Snapshot{snap})
	case FormatText, "":
		return []byte(clipboard.Render([]clipboard.Snapshot{snap}, s.indent) + "\n"), nil
	}
	return nil, fmt.Errorf("noteservice: export format %q: %w", format, apperr.ErrRejected)
}
