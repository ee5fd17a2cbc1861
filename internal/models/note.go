// Package models defines the domain types for arbor.
package models

import (
	"strings"
	"time"
)

// RootID is the id of the single true root note.
const RootID = "root"

// RootContent is the content given to a freshly created root.
const RootContent = "Root"

// Priority bounds accepted by the parser and the priority editor.
const (
	MinPriority = 0
	MaxPriority = 5
)

// TaskStatus is the task state of a note. The zero value means the note is
// not a task.
type TaskStatus string

const (
	TaskNone      TaskStatus = ""
	TaskActive    TaskStatus = "active"
	TaskComplete  TaskStatus = "complete"
	TaskCancelled TaskStatus = "cancelled"
)

// Next returns the status that follows s in the cycle
// none -> active -> complete -> cancelled -> none.
func (s TaskStatus) Next() TaskStatus {
	switch s {
	case TaskNone:
		return TaskActive
	case TaskActive:
		return TaskComplete
	case TaskComplete:
		return TaskCancelled
	default:
		return TaskNone
	}
}

// IsTask reports whether s marks a task.
func (s TaskStatus) IsTask() bool { return s != TaskNone }

// Valid reports whether s is one of the four known states.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskNone, TaskActive, TaskComplete, TaskCancelled:
		return true
	}
	return false
}

// Glyph returns the editable-text prefix for s, or "" for non-tasks.
func (s TaskStatus) Glyph() string {
	switch s {
	case TaskActive:
		return "☐ "
	case TaskComplete:
		return "☑ "
	case TaskCancelled:
		return "✗ "
	}
	return ""
}

// StatusFromGlyph strips a leading status glyph from line, returning the
// status it denotes and the remaining text.
func StatusFromGlyph(line string) (TaskStatus, string) {
	for _, s := range []TaskStatus{TaskActive, TaskComplete, TaskCancelled} {
		if rest, ok := strings.CutPrefix(line, s.Glyph()); ok {
			return s, rest
		}
	}
	return TaskNone, line
}

// CycleSteps returns how many Next calls lead from TaskNone to s.
func CycleSteps(s TaskStatus) int {
	n := 0
	for cur := TaskNone; cur != s && n < 4; cur = cur.Next() {
		n++
	}
	return n
}

// DateKind selects one of a task's two instants.
type DateKind string

const (
	DateStart DateKind = "start"
	DateDue   DateKind = "due"
)

// Note is one node of the outline.
type Note struct {
	ID          string     `json:"id"`
	ParentID    string     `json:"parent_id,omitempty"`
	Position    int        `json:"position"`
	Content     string     `json:"content"`
	TaskStatus  TaskStatus `json:"task_status,omitempty"`
	Priority    *int       `json:"priority,omitempty"`
	StartAt     *time.Time `json:"start_at,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Expanded    bool       `json:"expanded"`
	Path        string     `json:"path"`
	Depth       int        `json:"depth"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsRoot reports whether n is the true root.
func (n *Note) IsRoot() bool { return n.ParentID == "" }

// Clone returns a deep copy of n.
func (n *Note) Clone() *Note {
	c := *n
	c.Priority = cloneInt(n.Priority)
	c.StartAt = cloneTime(n.StartAt)
	c.DueAt = cloneTime(n.DueAt)
	c.CompletedAt = cloneTime(n.CompletedAt)
	return &c
}

// IsAncestorOf reports whether n is a strict ancestor of other, judged by
// materialized path.
func (n *Note) IsAncestorOf(other *Note) bool {
	return strings.HasPrefix(other.Path, n.Path+".")
}

// Move relocates one note. Position is the final index among the new
// parent's children once the note has left its old place.
type Move struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id"`
	Position int    `json:"position"`
}

// SearchResult is one note matched by a content search.
type SearchResult struct {
	ID        string    `json:"id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Content   string    `json:"content"`
	Snippet   string    `json:"snippet"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileMetadata describes one file in an inbox or export directory.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
