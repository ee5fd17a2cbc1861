package tui

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/arbor/internal/instant"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/noteservice"
	"github.com/starford/arbor/internal/store"
	"github.com/starford/arbor/internal/testutil"
)

func newTestModel(t *testing.T, seed ...string) (*Model, *noteservice.Service, *store.DB) {
	t.Helper()
	db := testutil.TestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()
	svc, err := noteservice.New(ctx, db, noteservice.Config{
		Resolver: instant.New(
			instant.WithClock(func() time.Time { return time.Date(2025, time.June, 10, 14, 30, 0, 0, time.UTC) }),
			instant.WithLocation(time.UTC),
		),
		Logger: logger,
	})
	require.NoError(t, err)
	for _, content := range seed {
		_, err := svc.CreateNote(ctx, models.RootID, content, -1)
		require.NoError(t, err)
	}
	return New(ctx, svc, logger), svc, db
}

func press(m *Model, msgs ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
)

func children(t *testing.T, db *store.DB, parentID string) []*models.Note {
	t.Helper()
	kids, err := db.GetChildren(context.Background(), parentID)
	require.NoError(t, err)
	return kids
}

func TestTUI_ShowsOutline(t *testing.T) {
	m, _, _ := newTestModel(t, "groceries", "work")

	view := m.View()
	assert.Contains(t, view, "Root")
	assert.Contains(t, view, "groceries")
	assert.Contains(t, view, "work")
}

func TestTUI_NewNoteAndType(t *testing.T) {
	m, _, db := newTestModel(t)

	press(m, runes("n"))
	require.True(t, m.editing())

	press(m, runes("buy milk"), tea.KeyMsg{Type: tea.KeySpace}, runes("today"), keyEsc)
	assert.False(t, m.editing())

	kids := children(t, db, models.RootID)
	require.Len(t, kids, 1)
	assert.Equal(t, "buy milk today", kids[0].Content)
}

func TestTUI_IndentWithTab(t *testing.T) {
	m, _, db := newTestModel(t, "a", "b")

	press(m, keyDown, keyDown, keyTab)

	kids := children(t, db, models.RootID)
	require.Len(t, kids, 1)
	assert.Equal(t, "a", kids[0].Content)
	under := children(t, db, kids[0].ID)
	require.Len(t, under, 1)
	assert.Equal(t, "b", under[0].Content)
}

func TestTUI_CycleTask(t *testing.T) {
	m, _, db := newTestModel(t, "call bank")

	press(m, keyDown, tea.KeyMsg{Type: tea.KeyCtrlAt})

	kids := children(t, db, models.RootID)
	require.Len(t, kids, 1)
	assert.Equal(t, models.TaskActive, kids[0].TaskStatus)
	assert.Contains(t, m.View(), "☐ call bank")
}

func TestTUI_EditKeysReachSession(t *testing.T) {
	m, _, db := newTestModel(t, "parent")

	press(m, keyDown, keyEnter)
	require.True(t, m.editing())

	// ctrl+n stands in for ctrl+enter: a first child opens for editing.
	press(m, tea.KeyMsg{Type: tea.KeyCtrlN}, runes("child"))
	press(m, tea.KeyMsg{Type: tea.KeyEnter, Alt: true}, runes("more"), keyEsc)

	parent := children(t, db, models.RootID)[0]
	kids := children(t, db, parent.ID)
	require.Len(t, kids, 1)
	assert.Equal(t, "child\nmore", kids[0].Content)
}

func TestTUI_FocusAndBack(t *testing.T) {
	m, svc, db := newTestModel(t, "project")
	ctx := context.Background()
	project := children(t, db, models.RootID)[0]
	_, err := svc.CreateNote(ctx, project.ID, "step one", -1)
	require.NoError(t, err)
	m.refresh()

	press(m, keyDown, runes("f"))
	assert.Equal(t, project.ID, m.view.Focus)
	assert.Contains(t, m.View(), "step one")

	press(m, runes("u"))
	assert.Equal(t, models.RootID, m.view.Focus)
}

func TestTUI_CopyPaste(t *testing.T) {
	m, _, db := newTestModel(t, "template", "target")

	press(m, keyDown, runes("c"), keyDown, runes("v"))

	kids := children(t, db, models.RootID)
	require.Len(t, kids, 2)
	pasted := children(t, db, kids[1].ID)
	require.Len(t, pasted, 1)
	assert.Equal(t, "template", pasted[0].Content)
}

func TestTUI_PasteSystemText(t *testing.T) {
	m, _, db := newTestModel(t, "trip")
	m.readText = func() (string, error) { return "pack\n    passport", nil }

	press(m, keyDown, runes("V"))

	kids := children(t, db, models.RootID)
	require.Len(t, kids, 1)
	pasted := children(t, db, kids[0].ID)
	require.Len(t, pasted, 1)
	assert.Equal(t, "pack", pasted[0].Content)
	require.Len(t, children(t, db, pasted[0].ID), 1)
	assert.Contains(t, m.View(), "imported 1")
}

func TestTUI_Quit(t *testing.T) {
	m, _, _ := newTestModel(t)

	cmd := press(m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}
