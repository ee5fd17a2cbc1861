package api

import (
	"net/http"

	"github.com/starford/arbor/internal/noteservice"
)

// Edit handles GET /api/edit.
//
//	@Summary		Get the edit session
//	@Tags			edit
//	@Produce		json
//	@Success		200	{object}	noteservice.EditState
//	@Security		BearerAuth
//	@Router			/edit [get]
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Edit(r.Context()))
}

// StartEdit handles POST /api/edit/start.
//
//	@Summary		Open a note for editing
//	@Tags			edit
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EditStartRequest	true	"Note and entry point"
//	@Success		200		{object}	noteservice.EditState
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/edit/start [post]
func (h *Handler) StartEdit(w http.ResponseWriter, r *http.Request) {
	var req EditStartRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := h.svc.StartEdit(r.Context(), req.ID, noteservice.EditEntry{
		At:     req.At,
		Offset: req.Offset,
		Line:   req.Line,
		Column: req.Column,
	})
	if err != nil {
		writeError(w, "start edit", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// EditInput handles POST /api/edit/input.
//
//	@Summary		Type into the edit buffer
//	@Tags			edit
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EditInputRequest	true	"Text"
//	@Success		200		{object}	noteservice.EditState
//	@Failure		409		{object}	errResponse	"No edit session"
//	@Security		BearerAuth
//	@Router			/edit/input [post]
func (h *Handler) EditInput(w http.ResponseWriter, r *http.Request) {
	var req EditInputRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Cursor != nil {
		h.svc.EditCursor(r.Context(), *req.Cursor)
	}
	st, err := h.svc.EditInput(r.Context(), req.Text, req.Replace)
	if err != nil {
		writeError(w, "edit input", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// EditKey handles POST /api/edit/key.
//
//	@Summary		Send a key to the edit session
//	@Description	Keys: tab, shift+tab, ctrl+space, up, down, left, right, backspace, enter, ctrl+enter, shift+enter, esc.
//	@Tags			edit
//	@Accept			json
//	@Produce		json
//	@Param			body	body		EditKeyRequest	true	"Key"
//	@Success		200		{object}	EditKeyResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/edit/key [post]
func (h *Handler) EditKey(w http.ResponseWriter, r *http.Request) {
	var req EditKeyRequest
	if !decode(w, r, &req) {
		return
	}
	handled, st, err := h.svc.EditKey(r.Context(), req.Key)
	if err != nil {
		writeError(w, "edit key", err)
		return
	}
	writeJSON(w, http.StatusOK, EditKeyResponse{Handled: handled, Edit: st})
}

// FinishEdit handles POST /api/edit/finish.
//
//	@Summary		Save the buffer and close the edit session
//	@Tags			edit
//	@Produce		json
//	@Success		200	{object}	noteservice.EditState
//	@Failure		503	{object}	errResponse	"Store failed; the session stays open"
//	@Security		BearerAuth
//	@Router			/edit/finish [post]
func (h *Handler) FinishEdit(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.FinishEdit(r.Context())
	if err != nil {
		writeError(w, "finish edit", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// DiscardEdit handles POST /api/edit/discard.
//
//	@Summary		Close the edit session without saving
//	@Tags			edit
//	@Produce		json
//	@Success		200	{object}	noteservice.EditState
//	@Security		BearerAuth
//	@Router			/edit/discard [post]
func (h *Handler) DiscardEdit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.DiscardEdit(r.Context()))
}
