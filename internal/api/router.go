package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/arbor/internal/noteservice"
	"github.com/starford/arbor/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// exports, if non-nil, backs the /exports routes.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler, exports storage.Provider) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// View.
	r.Get("/tree", h.Tree)
	r.Post("/focus", h.Focus)
	r.Post("/focus/up", h.FocusUp)
	r.Put("/depth", h.SetDepth)
	r.Post("/selection", h.Select)
	r.Post("/placeholders/{id}/expand", h.ExpandPlaceholder)

	// Notes.
	r.Post("/notes", h.CreateNote)
	r.Route("/notes/{id}", func(r chi.Router) {
		r.Get("/", h.GetNote)
		r.Put("/", h.UpdateNote)
		r.Delete("/", h.DeleteNote)
		r.Get("/children", h.Children)
		r.Post("/siblings", h.CreateSibling)
		r.Put("/expanded", h.SetExpanded)
		r.Post("/task/cycle", h.CycleTask)
		r.Put("/task", h.SetTask)
	})

	// Structure.
	r.Post("/structure/indent", h.Indent)
	r.Post("/structure/outdent", h.Outdent)
	r.Post("/structure/move", h.Move)
	r.Post("/structure/drop", h.Drop)

	// Clipboard.
	r.Get("/clipboard", h.Clipboard)
	r.Post("/clipboard/copy", h.Copy)
	r.Post("/clipboard/cut", h.Cut)
	r.Post("/clipboard/paste", h.Paste)
	r.Post("/imports", h.Import)

	// Edit session.
	r.Get("/edit", h.Edit)
	r.Post("/edit/start", h.StartEdit)
	r.Post("/edit/input", h.EditInput)
	r.Post("/edit/key", h.EditKey)
	r.Post("/edit/finish", h.FinishEdit)
	r.Post("/edit/discard", h.DiscardEdit)

	r.Get("/search", h.Search)

	if exports != nil {
		eh := NewExportHandler(svc, exports)
		r.Get("/exports", eh.List)
		r.Post("/exports/{id}", eh.Create)
		r.Get("/exports/{name}", eh.ServeFile)
	}

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
