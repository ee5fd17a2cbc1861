package clipboard

import (
	"strings"

	"github.com/starford/arbor/internal/models"
)

// DefaultIndent is the number of spaces per level in outline text.
const DefaultIndent = 4

// Render writes snapshots as indented outline text: one line per note,
// indent spaces per level, task glyph before the content. Lines inside a
// multi-line note are written at the note's level.
func Render(snaps []Snapshot, indent int) string {
	if indent <= 0 {
		indent = DefaultIndent
	}
	var lines []string
	var walk func(s Snapshot, depth int)
	walk = func(s Snapshot, depth int) {
		pad := strings.Repeat(" ", depth*indent)
		for i, line := range strings.Split(s.Content, "\n") {
			if i == 0 {
				line = s.TaskStatus.Glyph() + line
			}
			lines = append(lines, pad+line)
		}
		for _, c := range s.Children {
			walk(c, depth+1)
		}
	}
	for _, s := range snaps {
		walk(s, 0)
	}
	return strings.Join(lines, "\n")
}

// Parse reads indented outline text back into snapshots. A tab counts as
// one level; a line may go at most one level deeper than the line above it.
// Markdown list markers ("- ", "* ") and task glyphs are stripped, the glyph
// restoring the task status. Blank lines are skipped.
func Parse(text string, indent int) []Snapshot {
	if indent <= 0 {
		indent = DefaultIndent
	}
	var roots []Snapshot
	// path holds the index chain from roots down to the last parsed note.
	var path []int
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		level, body := measure(raw, indent)
		if level > len(path) {
			level = len(path)
		}
		path = path[:level]

		body = strings.TrimRight(body, " \t")
		for _, marker := range []string{"- ", "* "} {
			if rest, ok := strings.CutPrefix(body, marker); ok {
				body = rest
				break
			}
		}
		status, content := models.StatusFromGlyph(body)
		s := Snapshot{Content: content, TaskStatus: status}

		siblings := &roots
		for _, i := range path {
			siblings = &(*siblings)[i].Children
		}
		*siblings = append(*siblings, s)
		path = append(path, len(*siblings)-1)
	}
	return roots
}

func measure(line string, indent int) (int, string) {
	spaces := 0
	for i, r := range line {
		switch r {
		case ' ':
			spaces++
		case '\t':
			spaces += indent
		default:
			return spaces / indent, line[i:]
		}
	}
	return spaces / indent, ""
}
