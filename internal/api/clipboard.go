package api

import "net/http"

// Clipboard handles GET /api/clipboard.
//
//	@Summary		Get the clipboard state
//	@Tags			clipboard
//	@Produce		json
//	@Success		200	{object}	noteservice.ClipboardState
//	@Security		BearerAuth
//	@Router			/clipboard [get]
func (h *Handler) Clipboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Clipboard(r.Context()))
}

// Copy handles POST /api/clipboard/copy.
//
//	@Summary		Copy notes (or the selection) to the clipboard
//	@Tags			clipboard
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ClipboardRequest	false	"Notes"
//	@Success		200		{object}	noteservice.ClipboardState
//	@Security		BearerAuth
//	@Router			/clipboard/copy [post]
func (h *Handler) Copy(w http.ResponseWriter, r *http.Request) {
	var req ClipboardRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := h.svc.Copy(r.Context(), req.IDs)
	if err != nil {
		writeError(w, "copy", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Cut handles POST /api/clipboard/cut.
//
//	@Summary		Cut notes; they are removed when pasted
//	@Tags			clipboard
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ClipboardRequest	false	"Notes"
//	@Success		200		{object}	noteservice.ClipboardState
//	@Security		BearerAuth
//	@Router			/clipboard/cut [post]
func (h *Handler) Cut(w http.ResponseWriter, r *http.Request) {
	var req ClipboardRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := h.svc.Cut(r.Context(), req.IDs)
	if err != nil {
		writeError(w, "cut", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Paste handles POST /api/clipboard/paste.
//
//	@Summary		Paste the clipboard as children of a target
//	@Tags			clipboard
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PasteRequest	false	"Target"
//	@Success		200		{object}	PasteResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/clipboard/paste [post]
func (h *Handler) Paste(w http.ResponseWriter, r *http.Request) {
	var req PasteRequest
	if !decode(w, r, &req) {
		return
	}
	ids, err := h.svc.Paste(r.Context(), req.Target)
	if err != nil {
		writeError(w, "paste", err)
		return
	}
	writeJSON(w, http.StatusOK, PasteResponse{IDs: ids})
}

// Import handles POST /api/imports.
//
//	@Summary		Create notes from outline text or a YAML snapshot
//	@Tags			clipboard
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ImportRequest	true	"Outline"
//	@Success		201		{object}	PasteResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/imports [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !decode(w, r, &req) {
		return
	}
	ids, err := h.svc.ImportOutline(r.Context(), req.ParentID, []byte(req.Data), req.Format)
	if err != nil {
		writeError(w, "import", err)
		return
	}
	writeJSON(w, http.StatusCreated, PasteResponse{IDs: ids})
}
