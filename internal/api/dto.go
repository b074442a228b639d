package api

import "github.com/starford/laguz/internal/models"

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = models.NoteListItem

// SearchHit is a single semantic search result (aliased from the domain layer).
type SearchHit = models.SearchHit

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps semantic search results.
type SearchResponse struct {
	Results []SearchHit `json:"results" validate:"required"`
}

// BacklinkItem is one inbound link in a backlinks response.
type BacklinkItem struct {
	Source string `json:"source" example:"daily/2024-01-05" validate:"required"`
	Text   string `json:"text" example:"the plan"`
	Target string `json:"target" example:"projects/plan" validate:"required"`
}

// BacklinksResponse wraps the inbound links of one note.
type BacklinksResponse struct {
	Slug      string         `json:"slug" validate:"required"`
	Backlinks []BacklinkItem `json:"backlinks" validate:"required"`
}

// ConnectionItem is one reachable note with its minimum hop distance.
type ConnectionItem struct {
	Slug string `json:"slug" example:"projects/plan" validate:"required"`
	Hops int    `json:"hops" example:"2" validate:"required"`
}

// ConnectionsResponse wraps a graph traversal result.
type ConnectionsResponse struct {
	Slug        string           `json:"slug" validate:"required"`
	Hops        int              `json:"hops" validate:"required"`
	Connections []ConnectionItem `json:"connections" validate:"required"`
}

// GraphNode is a node in the knowledge graph.
type GraphNode struct {
	ID    string `json:"id" example:"notes/hello" validate:"required"`
	Title string `json:"title,omitempty" example:"Hello"`
}

// GraphLink is an edge in the knowledge graph.
type GraphLink struct {
	Source string `json:"source" example:"notes/hello" validate:"required"`
	Target string `json:"target" example:"notes/world" validate:"required"`
}

// GraphResponse wraps the knowledge graph.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes" validate:"required"`
	Links []GraphLink `json:"links" validate:"required"`
}
