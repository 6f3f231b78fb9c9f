package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/granola-sync/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Post("/sync", h.Sync)
	r.Get("/sync/status", h.SyncStatus)
	r.Get("/sync/runs", h.SyncRuns)

	r.Get("/settings", h.GetSettings)
	r.Put("/settings", h.PutSettings)
	r.Put("/settings/custom-properties", h.PutCustomProperty)
	r.Delete("/settings/custom-properties/{name}", h.DeleteCustomProperty)

	r.Get("/documents", h.ListDocuments)
	r.Post("/preview", h.Preview)
	r.Get("/search", h.Search)
	r.Get("/notes/*", h.GetNote)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
