package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *noteservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *noteservice.Service) *Handler {
	return &Handler{svc: svc}
}

func noteID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note ID"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, err := h.svc.GetNote(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	w.Header().Set("ETag", `"`+note.Checksum+`"`)
	writeJSON(w, http.StatusOK, note)
}

// Children handles GET /api/notes/{id}/children.
//
//	@Summary		List the children of a note in order
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		string	true	"Note ID"
//	@Success		200	{array}		models.Note
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/children [get]
func (h *Handler) Children(w http.ResponseWriter, r *http.Request) {
	id := noteID(r)
	if _, err := h.svc.GetNote(r.Context(), id); err != nil {
		writeError(w, "get children", err)
		return
	}
	kids, err := h.svc.Children(r.Context(), id)
	if err != nil {
		writeError(w, "get children", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"children": kids})
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a note or a task
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if !decode(w, r, &req) {
		return
	}
	var (
		note     *NoteDetail
		warnings []string
		err      error
	)
	if req.Task {
		note, warnings, err = h.svc.AddTask(r.Context(), req.ParentID, req.Content)
	} else {
		pos := -1
		if req.Position != nil {
			pos = *req.Position
		}
		note, err = h.svc.CreateNote(r.Context(), req.ParentID, req.Content, pos)
	}
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, NoteResponse{NoteDetail: note, Warnings: warnings})
}

// CreateSibling handles POST /api/notes/{id}/siblings.
//
//	@Summary		Insert a note right after another
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Note ID"
//	@Param			body	body		CreateSiblingRequest	true	"Content"
//	@Success		201		{object}	NoteDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/siblings [post]
func (h *Handler) CreateSibling(w http.ResponseWriter, r *http.Request) {
	var req CreateSiblingRequest
	if !decode(w, r, &req) {
		return
	}
	note, err := h.svc.CreateSibling(r.Context(), noteID(r), req.Content)
	if err != nil {
		writeError(w, "create sibling", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Update note content with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string				true	"Note ID"
//	@Param			If-Match	header		string				false	"SHA-256 checksum of the stored content"
//	@Param			body		body		UpdateNoteRequest	true	"Updated content"
//	@Success		200			{object}	NoteResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var req UpdateNoteRequest
	if !decode(w, r, &req) {
		return
	}
	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	note, warnings, err := h.svc.UpdateNote(r.Context(), noteID(r), *req.Content, ifMatch)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	w.Header().Set("ETag", `"`+note.Checksum+`"`)
	writeJSON(w, http.StatusOK, NoteResponse{NoteDetail: note, Warnings: warnings})
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note and its subtree
//	@Tags			notes
//	@Param			id	path	string	true	"Note ID"
//	@Success		204	"Note deleted"
//	@Success		200	{object}	AppliedResponse	"Deletion rejected (root)"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.DeleteNote(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "delete note", err)
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, AppliedResponse{Applied: false})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CycleTask handles POST /api/notes/{id}/task/cycle.
//
//	@Summary		Advance the task status (none, active, complete, cancelled)
//	@Tags			tasks
//	@Produce		json
//	@Param			id	path		string	true	"Note ID"
//	@Success		200	{object}	map[string]string
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/task/cycle [post]
func (h *Handler) CycleTask(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.CycleTask(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "cycle task", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"task_status": string(st)})
}

// SetTask handles PUT /api/notes/{id}/task.
//
//	@Summary		Set priority and dates of a task
//	@Tags			tasks
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Note ID"
//	@Param			body	body		TaskRequest	true	"Task fields"
//	@Success		200		{object}	AppliedResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/task [put]
func (h *Handler) SetTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := h.svc.SetTask(r.Context(), noteID(r), noteservice.TaskUpdate{
		Priority:      req.Priority,
		ClearPriority: req.ClearPriority,
		Start:         req.Start,
		Due:           req.Due,
	})
	if err != nil {
		writeError(w, "set task", err)
		return
	}
	writeJSON(w, http.StatusOK, AppliedResponse{Applied: ok})
}

// Search handles GET /api/search.
//
//	@Summary		Search note content
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
