package api

import (
	"net/http"
)

// Tree handles GET /api/tree.
//
//	@Summary		Get the visible tree, breadcrumbs, selection and edit state
//	@Tags			tree
//	@Produce		json
//	@Success		200	{object}	View
//	@Security		BearerAuth
//	@Router			/tree [get]
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.View(r.Context())
	if err != nil {
		writeError(w, "tree", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// Focus handles POST /api/focus.
//
//	@Summary		Re-root the view at a note
//	@Tags			tree
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FocusRequest	true	"Note to focus; empty for the root"
//	@Success		200		{object}	AppliedResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/focus [post]
func (h *Handler) Focus(w http.ResponseWriter, r *http.Request) {
	var req FocusRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := h.svc.Focus(r.Context(), req.ID)
	if err != nil {
		writeError(w, "focus", err)
		return
	}
	writeJSON(w, http.StatusOK, AppliedResponse{Applied: ok})
}

// FocusUp handles POST /api/focus/up.
//
//	@Summary		Move the focus to the parent of the focused note
//	@Tags			tree
//	@Produce		json
//	@Success		200	{object}	AppliedResponse
//	@Security		BearerAuth
//	@Router			/focus/up [post]
func (h *Handler) FocusUp(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.FocusUp(r.Context())
	if err != nil {
		writeError(w, "focus up", err)
		return
	}
	writeJSON(w, http.StatusOK, AppliedResponse{Applied: ok})
}

// SetDepth handles PUT /api/depth.
//
//	@Summary		Set the number of levels loaded below the focused note
//	@Tags			tree
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DepthRequest	true	"Depth"
//	@Success		200		{object}	View
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/depth [put]
func (h *Handler) SetDepth(w http.ResponseWriter, r *http.Request) {
	var req DepthRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.SetMaxDepth(r.Context(), req.MaxDepth); err != nil {
		writeError(w, "set depth", err)
		return
	}
	h.Tree(w, r)
}

// SetExpanded handles PUT /api/notes/{id}/expanded.
//
//	@Summary		Expand or collapse a visible note
//	@Tags			tree
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Note ID"
//	@Param			body	body		ExpandedRequest	true	"Expansion"
//	@Success		200		{object}	AppliedResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/expanded [put]
func (h *Handler) SetExpanded(w http.ResponseWriter, r *http.Request) {
	var req ExpandedRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := h.svc.SetExpanded(r.Context(), noteID(r), req.Expanded)
	if err != nil {
		writeError(w, "set expanded", err)
		return
	}
	writeJSON(w, http.StatusOK, AppliedResponse{Applied: ok})
}

// ExpandPlaceholder handles POST /api/placeholders/{id}/expand.
//
//	@Summary		Load one more level under a depth-limited note
//	@Tags			tree
//	@Produce		json
//	@Param			id	path		string	true	"Parent of the placeholder"
//	@Success		200	{object}	AppliedResponse
//	@Security		BearerAuth
//	@Router			/placeholders/{id}/expand [post]
func (h *Handler) ExpandPlaceholder(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.ExpandPlaceholder(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "expand placeholder", err)
		return
	}
	writeJSON(w, http.StatusOK, AppliedResponse{Applied: ok})
}

// Select handles POST /api/selection.
//
//	@Summary		Replace the selection
//	@Tags			tree
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SelectionRequest	true	"Selection"
//	@Success		200		{object}	map[string][]string
//	@Security		BearerAuth
//	@Router			/selection [post]
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !decode(w, r, &req) {
		return
	}
	sel := h.svc.Select(r.Context(), req.IDs, req.Current)
	if sel == nil {
		sel = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"selection": sel})
}
