package editor

import "math"

// colEnd as a preferred column means "end of whatever line we land on".
const colEnd = math.MaxInt

// noCol means no preferred column has been recorded.
const noCol = -1

type entryKind int

const (
	entryOffset entryKind = iota
	entryStart
	entryEnd
	entryClick
	entryFirstLine
	entryLastLine
)

// EntryPoint says where the cursor goes when a session starts.
type EntryPoint struct {
	kind   entryKind
	offset int
	line   int
	col    int
}

// AtOffset places the cursor n characters into the note's content, after
// any glyph prefix.
func AtOffset(n int) EntryPoint { return EntryPoint{kind: entryOffset, offset: n} }

// AtStart places the cursor at the start of the content.
func AtStart() EntryPoint { return EntryPoint{kind: entryStart} }

// AtEnd places the cursor at the end of the buffer.
func AtEnd() EntryPoint { return EntryPoint{kind: entryEnd} }

// AtClick places the cursor at a clicked line and column of the rendered
// buffer, glyph included.
func AtClick(line, col int) EntryPoint { return EntryPoint{kind: entryClick, line: line, col: col} }

// lineStarts returns the rune offset at which each line of buf begins.
func lineStarts(buf []rune) []int {
	starts := []int{0}
	for i, r := range buf {
		if r == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineEnd returns the offset just past the last character of line i.
func lineEnd(buf []rune, starts []int, i int) int {
	if i+1 < len(starts) {
		return starts[i+1] - 1
	}
	return len(buf)
}

// position converts an offset to a line and column.
func position(buf []rune, offset int) (line, col int) {
	starts := lineStarts(buf)
	for i := len(starts) - 1; i >= 0; i-- {
		if offset >= starts[i] {
			return i, offset - starts[i]
		}
	}
	return 0, offset
}

// offsetAt converts a line and column to an offset, clamping both and
// keeping the cursor out of the first minCol characters of line 0.
func offsetAt(buf []rune, line, col, minCol int) int {
	starts := lineStarts(buf)
	line = max(0, min(line, len(starts)-1))
	start, end := starts[line], lineEnd(buf, starts, line)
	if col > end-start {
		col = end - start
	}
	if line == 0 && col < minCol {
		col = minCol
	}
	return start + max(col, 0)
}
