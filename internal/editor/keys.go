package editor

import "strings"

// Key is an editing key the session reacts to.
type Key int

const (
	KeyTab Key = iota + 1
	KeyShiftTab
	KeyCtrlSpace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyBackspace
	KeyEnter
	KeyCtrlEnter
	KeyShiftEnter
	KeyEscape
)

var keyNames = map[string]Key{
	"tab":         KeyTab,
	"shift+tab":   KeyShiftTab,
	"ctrl+space":  KeyCtrlSpace,
	"up":          KeyUp,
	"down":        KeyDown,
	"left":        KeyLeft,
	"right":       KeyRight,
	"backspace":   KeyBackspace,
	"enter":       KeyEnter,
	"ctrl+enter":  KeyCtrlEnter,
	"shift+enter": KeyShiftEnter,
	"esc":         KeyEscape,
	"escape":      KeyEscape,
}

// ParseKey maps a key name such as "shift+tab" to a Key, ignoring case.
func ParseKey(name string) (Key, bool) {
	k, ok := keyNames[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

func (k Key) String() string {
	for name, v := range keyNames {
		if v == k && name != "escape" {
			return name
		}
	}
	return "unknown"
}
