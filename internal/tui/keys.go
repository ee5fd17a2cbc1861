package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the navigation-mode bindings. Edit mode forwards keys to the
// edit session by name instead.
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Collapse  key.Binding
	Expand    key.Binding
	Toggle    key.Binding
	Edit      key.Binding
	New       key.Binding
	Indent    key.Binding
	Outdent   key.Binding
	Cycle     key.Binding
	Delete    key.Binding
	Copy      key.Binding
	Cut       key.Binding
	Paste     key.Binding
	PasteText key.Binding
	Focus     key.Binding
	FocusUp   key.Binding
	Deeper    key.Binding
	Shallower key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Collapse:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
		Expand:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand")),
		Toggle:    key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "toggle")),
		Edit:      key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "edit")),
		New:       key.NewBinding(key.WithKeys("n", "o"), key.WithHelp("n", "new note")),
		Indent:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "indent")),
		Outdent:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "outdent")),
		Cycle:     key.NewBinding(key.WithKeys("ctrl+@", "ctrl+space", "t"), key.WithHelp("ctrl+space/t", "cycle task")),
		Delete:    key.NewBinding(key.WithKeys("delete", "d"), key.WithHelp("del/d", "delete")),
		Copy:      key.NewBinding(key.WithKeys("c", "y"), key.WithHelp("c", "copy")),
		Cut:       key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "cut")),
		Paste:     key.NewBinding(key.WithKeys("v", "p"), key.WithHelp("v", "paste")),
		PasteText: key.NewBinding(key.WithKeys("V"), key.WithHelp("V", "paste system text")),
		Focus:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "focus")),
		FocusUp:   key.NewBinding(key.WithKeys("u", "backspace"), key.WithHelp("u", "focus up")),
		Deeper:    key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "depth")),
		Shallower: key.NewBinding(key.WithKeys("-")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.New, k.Indent, k.Cycle, k.Focus, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Collapse, k.Expand, k.Toggle},
		{k.Edit, k.New, k.Indent, k.Outdent, k.Cycle, k.Delete},
		{k.Copy, k.Cut, k.Paste, k.PasteText},
		{k.Focus, k.FocusUp, k.Deeper, k.Help, k.Quit},
	}
}

// editKeys maps terminal key strings onto edit session key names.
// Terminals rarely report shift+enter or ctrl+enter, so alt+enter and
// ctrl+n stand in for them.
var editKeys = map[string]string{
	"tab":        "tab",
	"shift+tab":  "shift+tab",
	"ctrl+@":     "ctrl+space",
	"ctrl+space": "ctrl+space",
	"up":         "up",
	"down":       "down",
	"left":       "left",
	"right":      "right",
	"backspace":  "backspace",
	"enter":      "enter",
	"alt+enter":  "shift+enter",
	"ctrl+j":     "shift+enter",
	"ctrl+n":     "ctrl+enter",
	"esc":        "esc",
}
