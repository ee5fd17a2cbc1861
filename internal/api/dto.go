package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/noteservice"
)

const maxContentLen = 64 << 10

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// View is the rendered tree (aliased from the domain layer).
type View = noteservice.View

// NoteResponse is a note plus any parse warnings its content produced.
type NoteResponse struct {
	*NoteDetail
	Warnings []string `json:"warnings,omitempty"`
}

// CreateNoteRequest is the request body for creating a note. An empty
// parent_id means the focused root; a missing position appends.
type CreateNoteRequest struct {
	ParentID string `json:"parent_id" example:"root"`
	Content  string `json:"content" example:"Groceries"`
	Position *int   `json:"position,omitempty" example:"0"`
	// Task reads content with the task mini-language and creates a task.
	Task bool `json:"task,omitempty"`
}

func (r *CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Content, validation.Length(0, maxContentLen)),
		validation.Field(&r.Position,
			validation.Min(0),
			validation.When(r.Task, validation.Nil.Error("position is not used for tasks")),
		),
	)
}

// CreateSiblingRequest is the request body for inserting after a note.
type CreateSiblingRequest struct {
	Content string `json:"content" example:"Next item"`
}

func (r *CreateSiblingRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Content, validation.Length(0, maxContentLen)),
	)
}

// UpdateNoteRequest is the request body for replacing note content.
type UpdateNoteRequest struct {
	Content *string `json:"content" example:"Buy milk due friday p2" validate:"required"`
}

func (r *UpdateNoteRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Content, validation.NotNil, validation.Length(0, maxContentLen)),
	)
}

// TaskRequest changes task fields. Dates accept phrases ("tomorrow 5pm")
// or ISO-8601 text; "none" clears.
type TaskRequest struct {
	Priority      *int    `json:"priority,omitempty" example:"2"`
	ClearPriority bool    `json:"clear_priority,omitempty"`
	Start         *string `json:"start,omitempty" example:"monday 9am"`
	Due           *string `json:"due,omitempty" example:"in 3 days"`
}

func (r *TaskRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Priority,
			validation.Min(models.MinPriority),
			validation.Max(models.MaxPriority),
			validation.When(r.ClearPriority, validation.Nil.Error("priority conflicts with clear_priority")),
		),
	)
}

// IDsRequest names the notes of a batch operation.
type IDsRequest struct {
	IDs []string `json:"ids" validate:"required"`
}

func (r *IDsRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.IDs, validation.Required, validation.Each(validation.Required)),
	)
}

// MoveRequest moves one note to a final position under a new parent.
type MoveRequest struct {
	ID       string `json:"id" validate:"required"`
	ParentID string `json:"parent_id" validate:"required"`
	Position int    `json:"position" example:"0"`
}

func (r *MoveRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.ParentID, validation.Required),
		validation.Field(&r.Position, validation.Min(0)),
	)
}

// DropRequest drops dragged notes relative to a target row.
type DropRequest struct {
	IDs    []string `json:"ids" validate:"required"`
	Target string   `json:"target" example:"5b0c..."`
	Where  string   `json:"where" example:"below" enums:"on,above,below,empty"`
}

func (r *DropRequest) Validate() error {
	empty := r.Where == "" || r.Where == "empty"
	return validation.ValidateStruct(r,
		validation.Field(&r.IDs, validation.Required, validation.Each(validation.Required)),
		validation.Field(&r.Where, validation.In("on", "above", "below", "empty")),
		validation.Field(&r.Target, validation.When(!empty, validation.Required)),
	)
}

// SelectionRequest replaces the view selection.
type SelectionRequest struct {
	IDs     []string `json:"ids"`
	Current string   `json:"current,omitempty"`
}

func (r *SelectionRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.IDs, validation.Each(validation.Required)),
	)
}

// ClipboardRequest names the notes to copy or cut; empty means the
// current selection.
type ClipboardRequest struct {
	IDs []string `json:"ids,omitempty"`
}

func (r *ClipboardRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.IDs, validation.Each(validation.Required)),
	)
}

// PasteRequest names the paste target; empty means the current note.
type PasteRequest struct {
	Target string `json:"target,omitempty"`
}

func (r *PasteRequest) Validate() error { return nil }

// PasteResponse lists the notes created by a paste or import.
type PasteResponse struct {
	IDs []string `json:"ids" validate:"required"`
}

// FocusRequest re-roots the view; an empty id means the true root.
type FocusRequest struct {
	ID string `json:"id"`
}

func (r *FocusRequest) Validate() error { return nil }

// DepthRequest sets how many levels load below the focused root.
type DepthRequest struct {
	MaxDepth int `json:"max_depth" example:"10" validate:"required"`
}

func (r *DepthRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.MaxDepth, validation.Required, validation.Min(1), validation.Max(50)),
	)
}

// ExpandedRequest expands or collapses a note.
type ExpandedRequest struct {
	Expanded bool `json:"expanded"`
}

func (r *ExpandedRequest) Validate() error { return nil }

// EditStartRequest opens the edit session. offset wins over at; line and
// column describe a click when at is "click".
type EditStartRequest struct {
	ID     string `json:"id" validate:"required"`
	At     string `json:"at,omitempty" enums:"start,end,click"`
	Offset *int   `json:"offset,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

func (r *EditStartRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.At, validation.In("start", "end", "click")),
		validation.Field(&r.Offset, validation.Min(0)),
		validation.Field(&r.Line, validation.Min(0)),
		validation.Field(&r.Column, validation.Min(0)),
	)
}

// EditInputRequest inserts text at the cursor, or replaces the buffer.
// A cursor offset, when given, is applied first.
type EditInputRequest struct {
	Text    string `json:"text"`
	Replace bool   `json:"replace,omitempty"`
	Cursor  *int   `json:"cursor,omitempty"`
}

func (r *EditInputRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Text, validation.Length(0, maxContentLen)),
		validation.Field(&r.Cursor, validation.Min(0)),
	)
}

// EditKeyRequest sends one key of the edit key table.
type EditKeyRequest struct {
	Key string `json:"key" example:"shift+tab" validate:"required"`
}

func (r *EditKeyRequest) Validate() error {
	return validation.ValidateStruct(r, validation.Field(&r.Key, validation.Required))
}

// EditKeyResponse reports whether the key was handled, plus the session.
type EditKeyResponse struct {
	Handled bool                  `json:"handled"`
	Edit    noteservice.EditState `json:"edit"`
}

// ImportRequest creates notes from outline text or a YAML snapshot.
type ImportRequest struct {
	ParentID string `json:"parent_id"`
	Format   string `json:"format" enums:"text,yaml"`
	Data     string `json:"data" validate:"required"`
}

func (r *ImportRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Format, validation.In(noteservice.FormatText, noteservice.FormatYAML)),
		validation.Field(&r.Data, validation.Required),
	)
}

// ExportRequest selects the export format.
type ExportRequest struct {
	Format string `json:"format" enums:"text,yaml"`
}

func (r *ExportRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Format, validation.In(noteservice.FormatText, noteservice.FormatYAML)),
	)
}

// ExportResponse is returned after an export file is written.
type ExportResponse struct {
	Name string `json:"name" example:"5b0c-20260101T120000.txt" validate:"required"`
	Size int    `json:"size" example:"512" validate:"required"`
	URL  string `json:"url" example:"/api/exports/5b0c-20260101T120000.txt" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.SearchResult `json:"results" validate:"required"`
}
