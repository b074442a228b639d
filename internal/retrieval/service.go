// Package retrieval serves read-only queries over the knowledge store: the
// note list, semantic search, backlinks, graph traversal, and hidden-gem
// discovery.
package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/embed"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/store"
	"github.com/starford/laguz/internal/vector"
)

// DefaultLimit caps search results when the caller does not say otherwise.
const DefaultLimit = 10

// EmbedderFactory builds the embedder used for query vectors. The model is
// always the one the store was built with.
type EmbedderFactory func(ctx context.Context, model string) (embedding.Embedder, error)

// Service answers retrieval queries. It never writes; ingestion owns all
// mutation and swaps the live index underneath.
type Service struct {
	Store       *store.DB
	Live        *vector.Live
	NewEmbedder EmbedderFactory
}

// ListNotes returns every note's identity fields ordered by title. A
// non-empty tag restricts the list to notes carrying that tag.
func (s *Service) ListNotes(ctx context.Context, tag string) ([]models.NoteListItem, error) {
	if _, _, err := s.Store.Meta(); err != nil {
		return nil, err
	}
	if tag != "" {
		return s.Store.ListNotesByTag(tag)
	}
	return s.Store.ListNotes()
}

// SemanticSearch embeds the query with the store's model and returns the
// top chunks by cosine similarity, each carrying its note context. An
// empty index yields an empty result without an embedding call.
func (s *Service) SemanticSearch(ctx context.Context, query string, limit int) ([]models.SearchHit, error) {
	return s.search(ctx, query, limit, nil)
}

// HiddenGems ranks chunks by similarity to the query while excluding the
// seed note and everything one link away from it in either direction. The
// exclusion happens inside the index walk, so neighbors never consume
// result slots.
func (s *Service) HiddenGems(ctx context.Context, query, seedSlug string, limit int) ([]models.SearchHit, error) {
	neighbors, err := s.Store.Neighbors(seedSlug)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(neighbors)+1)
	slugs = append(slugs, seedSlug)
	for slug := range neighbors {
		slugs = append(slugs, slug)
	}
	ids, err := s.Store.NoteIDsBySlug(slugs)
	if err != nil {
		return nil, err
	}
	excluded := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		excluded[id] = struct{}{}
	}
	return s.search(ctx, query, limit, func(ref vector.ChunkRef) bool {
		_, ok := excluded[ref.NoteID]
		return ok
	})
}

func (s *Service) search(ctx context.Context, query string, limit int, exclude func(vector.ChunkRef) bool) ([]models.SearchHit, error) {
	model, dim, err := s.Store.Meta()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	ix := s.Live.Current()
	if ix == nil || ix.Len() == 0 {
		return []models.SearchHit{}, nil
	}
	if ix.Dim() != dim {
		return nil, fmt.Errorf("retrieval: index dimension %d, store dimension %d: %w",
			ix.Dim(), dim, apperr.ErrDimensionMismatch)
	}

	embedder, err := s.NewEmbedder(ctx, model)
	if err != nil {
		return nil, err
	}
	vecs, err := embed.Batch(ctx, embedder, model, []string{query})
	if err != nil {
		return nil, err
	}

	matches, err := ix.Search(ctx, vecs[0], limit, exclude)
	if err != nil {
		return nil, err
	}
	hits := make([]models.SearchHit, 0, len(matches))
	for _, m := range matches {
		hit, err := s.Store.SearchHitByChunk(m.Ref.ChunkID)
		if err != nil {
			return nil, err
		}
		hit.Similarity = m.Similarity
		hits = append(hits, hit)
	}
	return hits, nil
}

// Backlinks returns every link pointing at slug. An unknown slug yields
// an empty result.
func (s *Service) Backlinks(ctx context.Context, slug string) ([]models.Link, error) {
	if _, _, err := s.Store.Meta(); err != nil {
		return nil, err
	}
	links, err := s.Store.Backlinks(slug)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []models.Link{}
	}
	return links, nil
}

// Connections walks the undirected closure of the link graph breadth-first
// from slug and returns every node within hops steps, annotated with its
// minimum distance. The seed itself is not part of the result.
func (s *Service) Connections(ctx context.Context, slug string, hops int) ([]models.Connection, error) {
	if _, _, err := s.Store.Meta(); err != nil {
		return nil, err
	}
	if hops <= 0 {
		hops = 1
	}
	adj, err := s.Store.Adjacency()
	if err != nil {
		return nil, err
	}

	dist := map[string]int{slug: 0}
	frontier := []string{slug}
	for depth := 1; depth <= hops && len(frontier) > 0; depth++ {
		var next []string
		for _, cur := range frontier {
			for _, nb := range adj[cur] {
				if _, seen := dist[nb]; seen {
					continue
				}
				dist[nb] = depth
				next = append(next, nb)
			}
		}
		frontier = next
	}

	out := make([]models.Connection, 0, len(dist)-1)
	for node, d := range dist {
		if node == slug {
			continue
		}
		out = append(out, models.Connection{Slug: node, Hops: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Hops != out[j].Hops {
			return out[i].Hops < out[j].Hops
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

// Graph returns the full node and edge view, including synthetic nodes
// for link targets that have no note.
func (s *Service) Graph(ctx context.Context) ([]models.GraphNode, []models.GraphEdge, error) {
	if _, _, err := s.Store.Meta(); err != nil {
		return nil, nil, err
	}
	nodes, edges, err := s.Store.GraphSnapshot()
	if err != nil {
		return nil, nil, err
	}
	if nodes == nil {
		nodes = []models.GraphNode{}
	}
	if edges == nil {
		edges = []models.GraphEdge{}
	}
	return nodes, edges, nil
}
