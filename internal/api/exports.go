package api

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/starford/arbor/internal/models"
	"github.com/starford/arbor/internal/noteservice"
	"github.com/starford/arbor/internal/storage"
)

// ExportHandler writes subtree exports to the exports directory and serves
// them back.
type ExportHandler struct {
	svc   *noteservice.Service
	files storage.Provider
	now   func() time.Time
}

// NewExportHandler creates a handler over the exports directory.
func NewExportHandler(svc *noteservice.Service, files storage.Provider) *ExportHandler {
	return &ExportHandler{svc: svc, files: files, now: time.Now}
}

var exportExt = map[string]string{
	noteservice.FormatText: ".txt",
	noteservice.FormatYAML: ".yaml",
}

// safeName validates that name is a plain file name (no separators, no
// traversal).
func safeName(name string) error {
	if name == "" {
		return fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") || strings.HasPrefix(cleaned, ".") {
		return fmt.Errorf("invalid filename: %s", name)
	}
	return nil
}

// Create handles POST /api/exports/{id}.
//
//	@Summary		Export a subtree to a file
//	@Tags			exports
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Subtree root"
//	@Param			body	body		ExportRequest	false	"Format"
//	@Success		201		{object}	ExportResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exports/{id} [post]
func (h *ExportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Format == "" {
		req.Format = noteservice.FormatText
	}
	id := chi.URLParam(r, "id")
	data, err := h.svc.ExportOutline(r.Context(), id, req.Format)
	if err != nil {
		writeError(w, "export", err)
		return
	}
	name := fmt.Sprintf("%s-%s%s", id, h.now().UTC().Format("20060102T150405"), exportExt[req.Format])
	if err := h.files.Write(name, data); err != nil {
		writeError(w, "export", err)
		return
	}
	writeJSON(w, http.StatusCreated, ExportResponse{
		Name: name,
		Size: len(data),
		URL:  "/api/exports/" + name,
	})
}

// List handles GET /api/exports.
//
//	@Summary		List export files
//	@Tags			exports
//	@Produce		json
//	@Success		200	{object}	map[string][]models.FileMetadata
//	@Security		BearerAuth
//	@Router			/exports [get]
func (h *ExportHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.files.List("", ".txt", ".yaml")
	if err != nil {
		writeError(w, "list exports", err)
		return
	}
	if files == nil {
		files = []models.FileMetadata{}
	}
	writeJSON(w, http.StatusOK, map[string][]models.FileMetadata{"exports": files})
}

// ServeFile handles GET /api/exports/{name}.
//
//	@Summary		Download an export file
//	@Tags			exports
//	@Produce		plain
//	@Param			name	path	string	true	"File name"
//	@Success		200
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/exports/{name} [get]
func (h *ExportHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := safeName(name); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	data, err := h.files.Read(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		writeError(w, "read export", err)
		return
	}
	ct := "text/plain; charset=utf-8"
	if filepath.Ext(name) == ".yaml" {
		ct = "application/yaml"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
