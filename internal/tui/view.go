package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/outline"
)

const cursorGlyph = "█"

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.view == nil {
		if m.err != nil {
			return styleError.Render("Error: " + m.err.Error())
		}
		return styleDim.Render("Loading...")
	}

	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")

	lines := m.rowLines()
	start, end := m.window(len(lines))
	for _, l := range lines[start:end] {
		b.WriteString(l)
		b.WriteString("\n")
	}
	if len(lines) == 0 {
		b.WriteString(styleDim.Render("  (empty, press n to add a note)"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m *Model) header() string {
	labels := make([]string, 0, len(m.view.Breadcrumbs))
	for _, c := range m.view.Breadcrumbs {
		labels = append(labels, c.Label)
	}
	crumbs := styleCrumbs.Render(strings.Join(labels, " › "))
	return crumbs + styleDim.Render(fmt.Sprintf("  depth %d", m.view.MaxDepth))
}

// window returns the slice of row lines that fits the terminal with the
// cursor row visible.
func (m *Model) window(n int) (int, int) {
	avail := m.height - 6
	if m.height == 0 || avail <= 0 || n <= avail {
		return 0, n
	}
	start := 0
	if m.cursor >= avail {
		start = m.cursor - avail + 1
	}
	return start, min(start+avail, n)
}

func (m *Model) rowLines() []string {
	selected := make(map[string]bool, len(m.view.Selection))
	for _, id := range m.view.Selection {
		selected[id] = true
	}
	lines := make([]string, 0, len(m.view.Rows))
	for i, r := range m.view.Rows {
		lines = append(lines, m.renderRow(r, i == m.cursor, selected[r.ID]))
	}
	return lines
}

func (m *Model) renderRow(r outline.Row, current, selected bool) string {
	indent := strings.Repeat("  ", r.Depth)
	if r.Placeholder {
		line := stylePlaceholder.Render(r.Label())
		if current {
			line = styleCurrent.Render(r.Label())
		}
		return indent + "  " + line
	}

	marker := "• "
	switch {
	case r.HasChildren && r.Expanded:
		marker = "▾ "
	case r.HasChildren:
		marker = "▸ "
	}

	var text string
	if m.editing() && m.view.Edit.NoteID == r.ID {
		text = styleEditing.Render(withCursor(m.view.Edit.Buffer, m.view.Edit.Cursor))
		text = strings.ReplaceAll(text, "\n", "\n"+indent+"  ")
	} else {
		text = contentStyle(r.Note).Render(r.Label()) + taskMeta(r.Note)
	}

	line := marker + text
	switch {
	case current && !m.editing():
		line = styleCurrent.Render(marker + r.Label())
	case selected:
		line = styleSelected.Render(marker) + text
	}
	return indent + line
}

func withCursor(buf string, cursor int) string {
	r := []rune(buf)
	cursor = max(0, min(cursor, len(r)))
	return string(r[:cursor]) + cursorGlyph + string(r[cursor:])
}

func contentStyle(n *models.Note) lipgloss.Style {
	if n == nil {
		return lipgloss.NewStyle()
	}
	switch n.TaskStatus {
	case models.TaskComplete:
		return styleComplete
	case models.TaskCancelled:
		return styleCancelled
	}
	return lipgloss.NewStyle()
}

func taskMeta(n *models.Note) string {
	if n == nil || !n.TaskStatus.IsTask() {
		return ""
	}
	var parts []string
	if n.Priority != nil {
		parts = append(parts, stylePriority.Render(fmt.Sprintf("!%d", *n.Priority)))
	}
	if n.StartAt != nil {
		parts = append(parts, styleDim.Render("start "+n.StartAt.Local().Format("Jan 2 15:04")))
	}
	if n.DueAt != nil {
		parts = append(parts, styleDim.Render("due "+n.DueAt.Local().Format("Jan 2 15:04")))
	}
	if len(parts) == 0 {
		return ""
	}
	return "  " + strings.Join(parts, " ")
}

func (m *Model) footer() string {
	var b strings.Builder
	switch {
	case m.err != nil:
		b.WriteString(styleError.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	case m.status != "":
		b.WriteString(styleStatus.Render(m.status))
		b.WriteString("\n")
	}
	if m.editing() {
		b.WriteString(styleDim.Render("esc finish · enter split · ctrl+n child · alt+enter newline · tab indent · ctrl+space cycle"))
		return b.String()
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
