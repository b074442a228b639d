// Package vector wraps an in-memory HNSW nearest-neighbor index over chunk
// embeddings. The index is rebuilt from the store after every ingestion run
// and swapped in whole; it is never mutated in place while serving queries.
package vector

import (
	"context"
	"fmt"
	"sort"

	"github.com/hupe1980/vecgo"

	"github.com/starford/laguz/internal/apperr"
)

// ChunkRef identifies a stored chunk and its owning note. It is the payload
// carried through the index, so search results can be resolved against the
// relational store without a second lookup table.
type ChunkRef struct {
	ChunkID int64
	NoteID  int64
}

// Match is one ranked search result. Similarity is 1 minus the cosine
// distance reported by the index, so identical directions score 1.0.
type Match struct {
	Ref        ChunkRef
	Similarity float64
}

// Entry is one vector to insert, order-aligned with its chunk.
type Entry struct {
	Ref    ChunkRef
	Vector []float32
}

// Index is a cosine HNSW index over chunk vectors.
type Index struct {
	dim  int
	db   *vecgo.Vecgo[ChunkRef]
	refs map[uint64]ChunkRef
}

// New builds an empty index for vectors of the given dimension.
func New(dim int) (*Index, error) {
	db, err := vecgo.HNSW[ChunkRef](dim).Cosine().Build()
	if err != nil {
		return nil, fmt.Errorf("vector: build index: %w", err)
	}
	return &Index{dim: dim, db: db, refs: make(map[uint64]ChunkRef)}, nil
}

// Dim returns the vector dimension the index was built for.
func (ix *Index) Dim() int { return ix.dim }

// Len returns the number of indexed vectors.
func (ix *Index) Len() int { return len(ix.refs) }

// Add inserts entries in order, recording the internal id assigned to each
// so filtered searches can resolve ids back to chunk references.
func (ix *Index) Add(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	items := make([]vecgo.VectorWithData[ChunkRef], len(entries))
	for i, e := range entries {
		if len(e.Vector) != ix.dim {
			return fmt.Errorf("vector: chunk %d width %d, index dimension %d: %w",
				e.Ref.ChunkID, len(e.Vector), ix.dim, apperr.ErrDimensionMismatch)
		}
		items[i] = vecgo.VectorWithData[ChunkRef]{Vector: e.Vector, Data: e.Ref}
	}
	res := ix.db.BatchInsert(ctx, items)
	for _, err := range res.Errors {
		if err != nil {
			return fmt.Errorf("vector: batch insert: %w", err)
		}
	}
	if len(res.IDs) != len(entries) {
		return fmt.Errorf("vector: batch insert returned %d ids for %d entries", len(res.IDs), len(entries))
	}
	for i, id := range res.IDs {
		ix.refs[id] = entries[i].Ref
	}
	return nil
}

// Search returns up to k matches ranked by descending similarity. When
// exclude is non-nil, entries it reports true for are filtered out inside
// the index walk, so the result still holds up to k survivors rather than
// k candidates truncated after the fact.
func (ix *Index) Search(ctx context.Context, query []float32, k int, exclude func(ChunkRef) bool) ([]Match, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("vector: query width %d, index dimension %d: %w",
			len(query), ix.dim, apperr.ErrDimensionMismatch)
	}
	if ix.Len() == 0 || k <= 0 {
		return []Match{}, nil
	}

	results, err := ix.db.KNNSearch(ctx, query, k, func(o *vecgo.KNNSearchOptions) {
		if exclude != nil {
			o.FilterFunc = func(id uint64) bool {
				ref, ok := ix.refs[id]
				return ok && !exclude(ref)
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("vector: search: %w", err)
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			Ref:        r.Data,
			Similarity: 1 - float64(r.Distance),
		})
	}
	// Equal scores fall back to insertion order so results are stable
	// across runs over the same store.
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Ref.ChunkID < matches[j].Ref.ChunkID
	})
	return matches, nil
}
