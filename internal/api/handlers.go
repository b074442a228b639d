package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/retrieval"
)

// Handler holds API route handlers.
type Handler struct {
	svc *retrieval.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *retrieval.Service) *Handler {
	return &Handler{svc: svc}
}

// slugParam extracts the note slug from the URL (everything after the
// route prefix). Supports encoded slashes from OpenAPI clients
// (e.g. topics%2Fnote).
func slugParam(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// writeErr maps service errors onto HTTP statuses. A store that has never
// been ingested is a 503, distinct from empty results.
func writeErr(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, apperr.ErrUnavailable) {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("knowledge store not built; run ingest"))
		return
	}
	slog.Error(op+" failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes with optional tag filtering
//	@Tags			notes
//	@Produce		json
//	@Param			tag	query		string	false	"Filter by tag"
//	@Success		200	{object}	NoteListResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListNotes(r.Context(), r.URL.Query().Get("tag"))
	if err != nil {
		writeErr(w, "list notes", err)
		return
	}
	if items == nil {
		items = []NoteListItem{}
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// Search handles GET /api/search.
//
//	@Summary		Semantic search over note chunks
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Query text"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	hits, err := h.svc.SemanticSearch(r.Context(), q, limit)
	if err != nil {
		writeErr(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: hits})
}

// Backlinks handles GET /api/backlinks/*.
//
//	@Summary		List links pointing at a note
//	@Tags			graph
//	@Produce		json
//	@Param			slug	path		string	true	"Note slug"
//	@Success		200		{object}	BacklinksResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backlinks/{slug} [get]
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	slug := slugParam(r)
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug is required"))
		return
	}
	links, err := h.svc.Backlinks(r.Context(), slug)
	if err != nil {
		writeErr(w, "backlinks", err)
		return
	}
	items := make([]BacklinkItem, 0, len(links))
	for _, l := range links {
		items = append(items, BacklinkItem{Source: l.SourceSlug, Text: l.LinkText, Target: l.TargetSlug})
	}
	writeJSON(w, http.StatusOK, BacklinksResponse{Slug: slug, Backlinks: items})
}

// Connections handles GET /api/connections/*.
//
//	@Summary		Notes reachable within N hops of a note
//	@Tags			graph
//	@Produce		json
//	@Param			slug	path		string	true	"Note slug"
//	@Param			hops	query		int		false	"Max hop distance"	default(1)
//	@Success		200		{object}	ConnectionsResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/connections/{slug} [get]
func (h *Handler) Connections(w http.ResponseWriter, r *http.Request) {
	slug := slugParam(r)
	if slug == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug is required"))
		return
	}
	hops := 1
	if raw := r.URL.Query().Get("hops"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody("hops must be a positive integer"))
			return
		}
		hops = n
	}
	conns, err := h.svc.Connections(r.Context(), slug, hops)
	if err != nil {
		writeErr(w, "connections", err)
		return
	}
	items := make([]ConnectionItem, 0, len(conns))
	for _, c := range conns {
		items = append(items, ConnectionItem{Slug: c.Slug, Hops: c.Hops})
	}
	writeJSON(w, http.StatusOK, ConnectionsResponse{Slug: slug, Hops: hops, Connections: items})
}

// Hidden handles GET /api/hidden.
//
//	@Summary		Semantically relevant notes not linked to a seed note
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Query text"
//	@Param			seed	query		string	true	"Seed note slug"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hidden [get]
func (h *Handler) Hidden(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	seed := r.URL.Query().Get("seed")
	if q == "" || seed == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q and seed are required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	hits, err := h.svc.HiddenGems(r.Context(), q, seed, limit)
	if err != nil {
		writeErr(w, "hidden gems", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: hits})
}

// Graph handles GET /api/graph.
//
//	@Summary		Full link graph for visualization
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	nodes, edges, err := h.svc.Graph(r.Context())
	if err != nil {
		writeErr(w, "graph", err)
		return
	}
	resp := GraphResponse{Nodes: make([]GraphNode, 0, len(nodes)), Links: make([]GraphLink, 0, len(edges))}
	for _, n := range nodes {
		resp.Nodes = append(resp.Nodes, GraphNode{ID: n.Slug, Title: n.Title})
	}
	for _, e := range edges {
		resp.Links = append(resp.Links, GraphLink{Source: e.Source, Target: e.Target})
	}
	writeJSON(w, http.StatusOK, resp)
}
