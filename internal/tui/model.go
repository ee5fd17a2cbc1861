// Package tui is the terminal front end. It renders the outline view and
// drives the note service from the keyboard.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/arbor/internal/clipboard"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/noteservice"
	"github.com/starford/arbor/internal/outline"
)

const (
	minDepth = 1
	maxDepth = 50
)

// Model is the bubbletea model of the outline screen.
type Model struct {
	ctx    context.Context
	svc    *noteservice.Service
	logger *slog.Logger
	keys   keyMap
	help   help.Model

	// readText returns the operating system clipboard text.
	readText func() (string, error)

	view   *noteservice.View
	cursor int
	status string
	err    error

	width    int
	height   int
	quitting bool
}

// New builds the model and loads the first view.
func New(ctx context.Context, svc *noteservice.Service, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Model{
		ctx:    ctx,
		svc:    svc,
		logger: logger,
		keys:   defaultKeyMap(),
		help:   help.New(),

		readText: clipboard.ReadSystem,
	}
	m.refresh()
	return m
}

// Run shows the outline screen until the user quits or ctx is cancelled.
func Run(ctx context.Context, svc *noteservice.Service, logger *slog.Logger) error {
	p := tea.NewProgram(New(ctx, svc, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		var cmd tea.Cmd
		if m.editing() {
			cmd = m.updateEdit(msg)
		} else {
			cmd = m.updateNav(msg)
		}
		m.refresh()
		return m, cmd
	}
	return m, nil
}

func (m *Model) editing() bool {
	return m.view != nil && m.view.Edit.State == "editing"
}

// refresh reloads the view and keeps the cursor on the current note.
func (m *Model) refresh() {
	v, err := m.svc.View(m.ctx)
	if err != nil {
		m.report("view", err)
		return
	}
	m.view = v
	if m.cursor < len(v.Rows) && v.Rows[m.cursor].Placeholder {
		return
	}
	for i, r := range v.Rows {
		if r.ID != "" && r.ID == v.Current {
			m.cursor = i
			return
		}
	}
	m.cursor = min(m.cursor, max(len(v.Rows)-1, 0))
}

func (m *Model) report(op string, err error) {
	if err == nil {
		return
	}
	m.err = err
	m.logger.Warn("tui: operation failed", slog.String("op", op), slog.String("error", err.Error()))
}

func (m *Model) row() (outline.Row, bool) {
	if m.view == nil || m.cursor < 0 || m.cursor >= len(m.view.Rows) {
		return outline.Row{}, false
	}
	return m.view.Rows[m.cursor], true
}

// targets returns the selection when it contains the current note, else
// the current note alone.
func (m *Model) targets(id string) []string {
	for _, s := range m.view.Selection {
		if s == id {
			return m.view.Selection
		}
	}
	return []string{id}
}

func (m *Model) moveTo(i int) {
	if m.view == nil || i < 0 || i >= len(m.view.Rows) {
		return
	}
	m.cursor = i
	if r := m.view.Rows[i]; !r.Placeholder {
		m.svc.Select(m.ctx, []string{r.ID}, r.ID)
	}
}

func (m *Model) updateNav(msg tea.KeyMsg) tea.Cmd {
	m.err = nil
	m.status = ""

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	case key.Matches(msg, m.keys.Up):
		m.moveTo(m.cursor - 1)
		return nil
	case key.Matches(msg, m.keys.Down):
		m.moveTo(m.cursor + 1)
		return nil
	case key.Matches(msg, m.keys.FocusUp):
		_, err := m.svc.FocusUp(m.ctx)
		m.report("focus up", err)
		return nil
	case key.Matches(msg, m.keys.Deeper), key.Matches(msg, m.keys.Shallower):
		depth := m.view.MaxDepth + 1
		if key.Matches(msg, m.keys.Shallower) {
			depth = m.view.MaxDepth - 1
		}
		if depth >= minDepth && depth <= maxDepth {
			m.report("set depth", m.svc.SetMaxDepth(m.ctx, depth))
			m.status = fmt.Sprintf("depth %d", depth)
		}
		return nil
	case key.Matches(msg, m.keys.Paste):
		target := ""
		if r, ok := m.row(); ok && !r.Placeholder {
			target = r.ID
		}
		ids, err := m.svc.Paste(m.ctx, target)
		m.report("paste", err)
		if err == nil {
			m.status = fmt.Sprintf("pasted %d", len(ids))
		}
		return nil
	case key.Matches(msg, m.keys.PasteText):
		text, err := m.readText()
		if err != nil {
			m.report("read clipboard", err)
			return nil
		}
		target := ""
		if r, ok := m.row(); ok && !r.Placeholder {
			target = r.ID
		}
		ids, err := m.svc.ImportOutline(m.ctx, target, []byte(text), noteservice.FormatText)
		m.report("import", err)
		if err == nil {
			m.status = fmt.Sprintf("imported %d", len(ids))
		}
		return nil
	}

	r, ok := m.row()
	if !ok {
		if key.Matches(msg, m.keys.New) {
			m.create(nil)
		}
		return nil
	}
	if r.Placeholder {
		if key.Matches(msg, m.keys.Edit) || key.Matches(msg, m.keys.Expand) || key.Matches(msg, m.keys.Toggle) {
			_, err := m.svc.ExpandPlaceholder(m.ctx, r.ParentID)
			m.report("expand placeholder", err)
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Edit):
		_, err := m.svc.StartEdit(m.ctx, r.ID, noteservice.EditEntry{At: "end"})
		m.report("start edit", err)
	case key.Matches(msg, m.keys.New):
		m.create(&r)
	case key.Matches(msg, m.keys.Toggle):
		if r.HasChildren {
			_, err := m.svc.SetExpanded(m.ctx, r.ID, !r.Expanded)
			m.report("toggle", err)
		}
	case key.Matches(msg, m.keys.Expand):
		if r.HasChildren && !r.Expanded {
			_, err := m.svc.SetExpanded(m.ctx, r.ID, true)
			m.report("expand", err)
		}
	case key.Matches(msg, m.keys.Collapse):
		if r.HasChildren && r.Expanded {
			_, err := m.svc.SetExpanded(m.ctx, r.ID, false)
			m.report("collapse", err)
			break
		}
		for i, p := range m.view.Rows {
			if p.ID != "" && p.ID == r.ParentID {
				m.moveTo(i)
				break
			}
		}
	case key.Matches(msg, m.keys.Indent):
		_, err := m.svc.Indent(m.ctx, m.targets(r.ID))
		m.report("indent", err)
	case key.Matches(msg, m.keys.Outdent):
		_, err := m.svc.Outdent(m.ctx, m.targets(r.ID))
		m.report("outdent", err)
	case key.Matches(msg, m.keys.Cycle):
		st, err := m.svc.CycleTask(m.ctx, r.ID)
		m.report("cycle task", err)
		if err == nil {
			m.status = statusName(st)
		}
	case key.Matches(msg, m.keys.Delete):
		ok, err := m.svc.DeleteNote(m.ctx, r.ID)
		m.report("delete", err)
		if ok {
			m.status = "deleted"
		}
	case key.Matches(msg, m.keys.Copy):
		st, err := m.svc.Copy(m.ctx, m.targets(r.ID))
		m.report("copy", err)
		if err == nil {
			m.status = fmt.Sprintf("copied %d", st.Count)
		}
	case key.Matches(msg, m.keys.Cut):
		st, err := m.svc.Cut(m.ctx, m.targets(r.ID))
		m.report("cut", err)
		if err == nil {
			m.status = fmt.Sprintf("cut %d, paste to move", st.Count)
		}
	case key.Matches(msg, m.keys.Focus):
		_, err := m.svc.Focus(m.ctx, r.ID)
		m.report("focus", err)
	}
	return nil
}

// create adds an empty note after r (or under it when r is the root) and
// opens it for editing.
func (m *Model) create(r *outline.Row) {
	var (
		d   *noteservice.NoteDetail
		err error
	)
	switch {
	case r == nil:
		d, err = m.svc.CreateNote(m.ctx, "", "", -1)
	case r.Note != nil && r.Note.IsRoot():
		d, err = m.svc.CreateNote(m.ctx, r.ID, "", -1)
	default:
		d, err = m.svc.CreateSibling(m.ctx, r.ID, "")
	}
	if err != nil {
		m.report("create", err)
		return
	}
	_, err = m.svc.StartEdit(m.ctx, d.ID, noteservice.EditEntry{At: "end"})
	m.report("start edit", err)
}

func (m *Model) updateEdit(msg tea.KeyMsg) tea.Cmd {
	m.err = nil
	s := msg.String()

	if s == "ctrl+c" {
		_, err := m.svc.FinishEdit(m.ctx)
		m.report("finish edit", err)
		m.quitting = true
		return tea.Quit
	}
	if name, ok := editKeys[s]; ok {
		_, st, err := m.svc.EditKey(m.ctx, name)
		m.report("edit key", err)
		if len(st.Warnings) > 0 {
			m.status = strings.Join(st.Warnings, "; ")
		}
		return nil
	}

	var text string
	switch msg.Type {
	case tea.KeyRunes:
		text = string(msg.Runes)
	case tea.KeySpace:
		text = " "
	default:
		return nil
	}
	_, err := m.svc.EditInput(m.ctx, text, false)
	m.report("edit input", err)
	return nil
}

func statusName(s models.TaskStatus) string {
	if s == models.TaskNone {
		return "plain note"
	}
	return string(s)
}
