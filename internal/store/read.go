package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

// ListNotes returns the identity-bearing fields of every note, ordered by
// title.
func (db *DB) ListNotes() ([]models.NoteListItem, error) {
	rows, err := db.conn.Query(`
		SELECT slug, title, tags, source_type, source_title, source_author, source_url
		FROM notes ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	defer rows.Close()

	var out []models.NoteListItem
	for rows.Next() {
		var item models.NoteListItem
		var tagsJSON string
		if err := rows.Scan(&item.Slug, &item.Title, &tagsJSON,
			&item.SourceType, &item.SourceTitle, &item.SourceAuthor, &item.SourceURL); err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		item.Tags = []string{}
		_ = json.Unmarshal([]byte(tagsJSON), &item.Tags)
		out = append(out, item)
	}
	return out, rows.Err()
}

// ListNotesByTag returns the notes that belong to the tag hyperedge with
// the given value, ordered by title. An unknown tag yields an empty list.
func (db *DB) ListNotesByTag(tag string) ([]models.NoteListItem, error) {
	rows, err := db.conn.Query(`
		SELECT n.slug, n.title, n.tags, n.source_type, n.source_title, n.source_author, n.source_url
		FROM hyperedges h
		JOIN hyperedge_members m ON m.hyperedge_id = h.hyperedge_id
		JOIN notes n ON n.note_id = m.note_id
		WHERE h.edge_type = 'tag' AND h.edge_value = ?
		ORDER BY n.title`, tag)
	if err != nil {
		return nil, fmt.Errorf("store: list by tag: %w", err)
	}
	defer rows.Close()

	var out []models.NoteListItem
	for rows.Next() {
		var item models.NoteListItem
		var tagsJSON string
		if err := rows.Scan(&item.Slug, &item.Title, &tagsJSON,
			&item.SourceType, &item.SourceTitle, &item.SourceAuthor, &item.SourceURL); err != nil {
			return nil, fmt.Errorf("store: list by tag scan: %w", err)
		}
		item.Tags = []string{}
		_ = json.Unmarshal([]byte(tagsJSON), &item.Tags)
		out = append(out, item)
	}
	return out, rows.Err()
}

// Backlinks returns every link whose target equals slug. An unknown slug
// yields an empty result, not an error.
func (db *DB) Backlinks(slug string) ([]models.Link, error) {
	rows, err := db.conn.Query(`
		SELECT source_slug, link_text, target_slug FROM links
		WHERE target_slug = ? ORDER BY link_id`, slug)
	if err != nil {
		return nil, fmt.Errorf("store: backlinks: %w", err)
	}
	defer rows.Close()

	var out []models.Link
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.SourceSlug, &l.LinkText, &l.TargetSlug); err != nil {
			return nil, fmt.Errorf("store: backlinks scan: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Neighbors returns the set of slugs exactly one link away from slug, in
// either direction. Dangling targets count as neighbors.
func (db *DB) Neighbors(slug string) (map[string]struct{}, error) {
	rows, err := db.conn.Query(`
		SELECT target_slug FROM links WHERE source_slug = ?
		UNION
		SELECT source_slug FROM links WHERE target_slug = ?`, slug, slug)
	if err != nil {
		return nil, fmt.Errorf("store: neighbors: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("store: neighbors scan: %w", err)
		}
		if s != slug {
			out[s] = struct{}{}
		}
	}
	return out, rows.Err()
}

// Adjacency returns the undirected closure of the link graph as an
// adjacency map, keyed by slug. Dangling targets appear as nodes.
func (db *DB) Adjacency() (map[string][]string, error) {
	rows, err := db.conn.Query(`SELECT source_slug, target_slug FROM links`)
	if err != nil {
		return nil, fmt.Errorf("store: adjacency: %w", err)
	}
	defer rows.Close()

	adj := make(map[string][]string)
	for rows.Next() {
		var src, tgt string
		if err := rows.Scan(&src, &tgt); err != nil {
			return nil, fmt.Errorf("store: adjacency scan: %w", err)
		}
		adj[src] = append(adj[src], tgt)
		adj[tgt] = append(adj[tgt], src)
	}
	return adj, rows.Err()
}

// NoteIDsBySlug resolves slugs to note ids; slugs without a note are
// simply absent from the result.
func (db *DB) NoteIDsBySlug(slugs []string) (map[string]int64, error) {
	out := make(map[string]int64, len(slugs))
	if len(slugs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(slugs)), ",")
	args := make([]any, len(slugs))
	for i, s := range slugs {
		args[i] = s
	}
	rows, err := db.conn.Query(`SELECT slug, note_id FROM notes WHERE slug IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: note ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var slug string
		var id int64
		if err := rows.Scan(&slug, &id); err != nil {
			return nil, fmt.Errorf("store: note ids scan: %w", err)
		}
		out[slug] = id
	}
	return out, rows.Err()
}

// GraphSnapshot returns the full node/edge view. Slugs referenced by a
// link but absent from notes appear as synthetic nodes whose title is the
// slug itself.
func (db *DB) GraphSnapshot() ([]models.GraphNode, []models.GraphEdge, error) {
	nodeRows, err := db.conn.Query(`SELECT slug, title FROM notes ORDER BY slug`)
	if err != nil {
		return nil, nil, fmt.Errorf("store: graph nodes: %w", err)
	}
	defer nodeRows.Close()

	seen := make(map[string]struct{})
	var nodes []models.GraphNode
	for nodeRows.Next() {
		var n models.GraphNode
		if err := nodeRows.Scan(&n.Slug, &n.Title); err != nil {
			return nil, nil, fmt.Errorf("store: graph node scan: %w", err)
		}
		if n.Title == "" {
			n.Title = n.Slug
		}
		seen[n.Slug] = struct{}{}
		nodes = append(nodes, n)
	}
	if err := nodeRows.Err(); err != nil {
		return nil, nil, err
	}

	edgeRows, err := db.conn.Query(`SELECT source_slug, target_slug FROM links ORDER BY link_id`)
	if err != nil {
		return nil, nil, fmt.Errorf("store: graph edges: %w", err)
	}
	defer edgeRows.Close()

	var edges []models.GraphEdge
	for edgeRows.Next() {
		var e models.GraphEdge
		if err := edgeRows.Scan(&e.Source, &e.Target); err != nil {
			return nil, nil, fmt.Errorf("store: graph edge scan: %w", err)
		}
		edges = append(edges, e)
		for _, s := range []string{e.Source, e.Target} {
			if _, ok := seen[s]; !ok {
				seen[s] = struct{}{}
				nodes = append(nodes, models.GraphNode{Slug: s, Title: s})
			}
		}
	}
	return nodes, edges, edgeRows.Err()
}

// SearchHitByChunk loads the note context for a ranked chunk.
func (db *DB) SearchHitByChunk(chunkID int64) (models.SearchHit, error) {
	var hit models.SearchHit
	err := db.conn.QueryRow(`
		SELECT n.slug, n.title, n.file_path, c.content, c.heading_context,
			n.source_type, n.source_title, n.source_author
		FROM chunks c JOIN notes n ON n.note_id = c.note_id
		WHERE c.chunk_id = ?`, chunkID).
		Scan(&hit.Slug, &hit.Title, &hit.FilePath, &hit.Content, &hit.HeadingContext,
			&hit.SourceType, &hit.SourceTitle, &hit.SourceAuthor)
	if err == sql.ErrNoRows {
		return hit, fmt.Errorf("store: chunk %d: %w", chunkID, apperr.ErrNotFound)
	}
	if err != nil {
		return hit, fmt.Errorf("store: search hit: %w", err)
	}
	return hit, nil
}

// VectorRow is one stored chunk vector with its owning note.
type VectorRow struct {
	ChunkID int64
	NoteID  int64
	Vector  []float32
}

// AllEmbeddings streams every stored vector in chunk order, decoding each
// blob against the store dimension. Used to rebuild the in-memory
// nearest-neighbor index.
func (db *DB) AllEmbeddings(dim int) ([]VectorRow, error) {
	rows, err := db.conn.Query(`
		SELECT e.chunk_id, c.note_id, e.vector
		FROM embeddings e JOIN chunks c ON c.chunk_id = e.chunk_id
		ORDER BY e.chunk_id`)
	if err != nil {
		return nil, fmt.Errorf("store: all embeddings: %w", err)
	}
	defer rows.Close()

	var out []VectorRow
	for rows.Next() {
		var r VectorRow
		var blob []byte
		if err := rows.Scan(&r.ChunkID, &r.NoteID, &blob); err != nil {
			return nil, fmt.Errorf("store: embedding scan: %w", err)
		}
		vec, err := decodeVector(blob, dim)
		if err != nil {
			return nil, err
		}
		r.Vector = vec
		out = append(out, r)
	}
	return out, rows.Err()
}

// Counts reports the logical row counts of one build, used for the
// ingestion summary and for tests.
func (db *DB) Counts() (notes, links, chunks int, err error) {
	for _, q := range []struct {
		sql  string
		dest *int
	}{
		{`SELECT count(*) FROM notes`, &notes},
		{`SELECT count(*) FROM links`, &links},
		{`SELECT count(*) FROM chunks`, &chunks},
	} {
		if err := db.conn.QueryRow(q.sql).Scan(q.dest); err != nil {
			return 0, 0, 0, fmt.Errorf("store: count: %w", err)
		}
	}
	return notes, links, chunks, nil
}
