package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/laguz/internal/retrieval"
)

// NewRouter creates a chi router with all API routes mounted.
// When token is non-empty, Bearer token auth is enforced on every route.
func NewRouter(svc *retrieval.Service, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(token != "", token))

	// Notes.
	r.Get("/notes", h.ListNotes)

	// Search.
	r.Get("/search", h.Search)
	r.Get("/hidden", h.Hidden)

	// Graph.
	r.Get("/graph", h.Graph)
	r.Get("/backlinks/*", h.Backlinks)
	r.Get("/connections/*", h.Connections)

	return r
}
