// Package models defines the domain types for Laguz.
package models

// Note represents a parsed Markdown file in the vault. The slug is the
// stable identity; numeric ids are assigned per ingestion run.
type Note struct {
	ID           int64          `json:"-"`
	FilePath     string         `json:"file_path"`
	Slug         string         `json:"slug"`
	Title        string         `json:"title"`
	Body         string         `json:"-"`
	Frontmatter  map[string]any `json:"frontmatter,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	Aliases      []string       `json:"aliases,omitempty"`
	SourceType   string         `json:"source_type,omitempty"`
	SourceTitle  string         `json:"source_title,omitempty"`
	SourceAuthor string         `json:"source_author,omitempty"`
	SourceURL    string         `json:"source_url,omitempty"`
	WordCount    int            `json:"word_count"`
}

// Link is a directed edge between two notes. The target slug need not
// resolve to an existing note; dangling edges are kept.
type Link struct {
	SourceSlug string `json:"source_slug"`
	TargetSlug string `json:"target_slug"`
	LinkText   string `json:"link_text"`
}

// Chunk type tags.
const (
	ChunkTypeHeading   = "heading"
	ChunkTypeParagraph = "paragraph"
	ChunkTypeCode      = "code"
)

// Chunk is a bounded-size retrieval unit of a note body.
type Chunk struct {
	Content        string `json:"content"`
	HeadingContext string `json:"heading_context,omitempty"`
	Type           string `json:"chunk_type"`
	StartLine      int    `json:"start_line"`
	EndLine        int    `json:"end_line"`
}

// GraphNode is a node in the full graph view. Synthetic nodes (link targets
// without a note) carry their slug as title.
type GraphNode struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// GraphEdge is an edge in the full graph view.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Connection is a node reached by the N-hop traversal, annotated with its
// minimum hop distance from the seed.
type Connection struct {
	Slug string `json:"slug"`
	Hops int    `json:"hops"`
}

// SearchHit is one semantic search result: a chunk with its note context.
type SearchHit struct {
	Slug           string  `json:"slug"`
	Title          string  `json:"title"`
	FilePath       string  `json:"file_path"`
	Content        string  `json:"content"`
	HeadingContext string  `json:"heading_context,omitempty"`
	SourceType     string  `json:"source_type,omitempty"`
	SourceTitle    string  `json:"source_title,omitempty"`
	SourceAuthor   string  `json:"source_author,omitempty"`
	Similarity     float64 `json:"similarity"`
}

// NoteListItem is the identity-bearing projection returned by list queries.
type NoteListItem struct {
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	Tags         []string `json:"tags"`
	SourceType   string   `json:"source_type,omitempty"`
	SourceTitle  string   `json:"source_title,omitempty"`
	SourceAuthor string   `json:"source_author,omitempty"`
	SourceURL    string   `json:"source_url,omitempty"`
}
