package api

import "net/http"

// Indent handles POST /api/structure/indent.
//
//	@Summary		Indent notes under their previous sibling
//	@Description	Several notes must be contiguous siblings; otherwise nothing happens.
//	@Tags			structure
//	@Accept			json
//	@Produce		json
//	@Param			body	body		IDsRequest	true	"Notes"
//	@Success		200		{object}	AppliedResponse
//	@Security		BearerAuth
//	@Router			/structure/indent [post]
func (h *Handler) Indent(w http.ResponseWriter, r *http.Request) {
	var req IDsRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := h.svc.Indent(r.Context(), req.IDs)
	if err != nil {
		writeError(w, "indent", err)
		return
	}
	writeJSON(w, http.StatusOK, AppliedResponse{Applied: ok})
}

// Outdent handles POST /api/structure/outdent.
//
//	@Summary		Outdent notes to follow their parent
//	@Tags			structure
//	@Accept			json
//	@Produce		json
//	@Param			body	body		IDsRequest	true	"Notes"
//	@Success		200		{object}	AppliedResponse
//	@Security		BearerAuth
//	@Router			/structure/outdent [post]
func (h *Handler) Outdent(w http.ResponseWriter, r *http.Request) {
	var req IDsRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := h.svc.Outdent(r.Context(), req.IDs)
	if err != nil {
		writeError(w, "outdent", err)
		return
	}
	writeJSON(w, http.StatusOK, AppliedResponse{Applied: ok})
}

// Move handles POST /api/structure/move.
//
//	@Summary		Move a note to a final position under a parent
//	@Tags			structure
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MoveRequest	true	"Move"
//	@Success		200		{object}	AppliedResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/structure/move [post]
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := h.svc.Move(r.Context(), req.ID, req.ParentID, req.Position)
	if err != nil {
		writeError(w, "move", err)
		return
	}
	writeJSON(w, http.StatusOK, AppliedResponse{Applied: ok})
}

// Drop handles POST /api/structure/drop.
//
//	@Summary		Drop dragged notes on, above or below a target
//	@Tags			structure
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DropRequest	true	"Drop"
//	@Success		200		{object}	AppliedResponse
//	@Security		BearerAuth
//	@Router			/structure/drop [post]
func (h *Handler) Drop(w http.ResponseWriter, r *http.Request) {
	var req DropRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := h.svc.Drop(r.Context(), req.IDs, req.Target, req.Where)
	if err != nil {
		writeError(w, "drop", err)
		return
	}
	writeJSON(w, http.StatusOK, AppliedResponse{Applied: ok})
}
