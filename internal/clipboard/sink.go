package clipboard

import (
	"github.com/atotto/clipboard"
)

// TextSink receives the outline text of every copy and cut.
type TextSink interface {
	WriteText(text string) error
}

// SystemSink mirrors copied text to the operating system clipboard.
type SystemSink struct{}

// WriteText implements TextSink.
func (SystemSink) WriteText(text string) error {
	if clipboard.Unsupported {
		return nil
	}
	return clipboard.WriteAll(text)
}

// ReadSystem returns the current text of the operating system clipboard.
func ReadSystem() (string, error) {
	return clipboard.ReadAll()
}
