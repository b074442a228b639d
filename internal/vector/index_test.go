package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/starford/laguz/internal/apperr"
)

func testEntries() []Entry {
	return []Entry{
		{Ref: ChunkRef{ChunkID: 1, NoteID: 10}, Vector: []float32{1, 0, 0}},
		{Ref: ChunkRef{ChunkID: 2, NoteID: 20}, Vector: []float32{0.9, 0.1, 0}},
		{Ref: ChunkRef{ChunkID: 3, NoteID: 30}, Vector: []float32{0, 0, 1}},
	}
}

func TestSearchRanksByDirection(t *testing.T) {
	ix, err := New(3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ix.Add(context.Background(), testEntries()); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if ix.Len() != 3 {
		t.Fatalf("Len = %d, want 3", ix.Len())
	}

	matches, err := ix.Search(context.Background(), []float32{1, 0, 0}, 2, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Ref.ChunkID != 1 || matches[1].Ref.ChunkID != 2 {
		t.Fatalf("ranking = %d, %d, want 1, 2", matches[0].Ref.ChunkID, matches[1].Ref.ChunkID)
	}
	if matches[0].Similarity < matches[1].Similarity {
		t.Fatalf("similarities not descending: %v", matches)
	}
	if matches[0].Similarity < 0.99 {
		t.Fatalf("exact match similarity = %v, want ~1", matches[0].Similarity)
	}
}

func TestSearchExcludesFiltered(t *testing.T) {
	ix, err := New(3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ix.Add(context.Background(), testEntries()); err != nil {
		t.Fatalf("Add: %v", err)
	}

	exclude := func(ref ChunkRef) bool { return ref.NoteID == 10 }
	matches, err := ix.Search(context.Background(), []float32{1, 0, 0}, 2, exclude)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// The excluded note's chunk must not consume a result slot.
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	for _, m := range matches {
		if m.Ref.NoteID == 10 {
			t.Fatalf("excluded note surfaced: %+v", m)
		}
	}
	if matches[0].Ref.ChunkID != 2 {
		t.Fatalf("top match = %d, want 2", matches[0].Ref.ChunkID)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	ix, err := New(3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	matches, err := ix.Search(context.Background(), []float32{1, 0, 0}, 5, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("got %d matches from empty index", len(matches))
	}
}

func TestDimensionMismatch(t *testing.T) {
	ix, err := New(3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = ix.Add(context.Background(), []Entry{{Ref: ChunkRef{ChunkID: 1}, Vector: []float32{1, 0}}})
	if !errors.Is(err, apperr.ErrDimensionMismatch) {
		t.Fatalf("Add error = %v, want ErrDimensionMismatch", err)
	}
	if err := ix.Add(context.Background(), testEntries()); err != nil {
		t.Fatalf("Add: %v", err)
	}
	_, err = ix.Search(context.Background(), []float32{1, 0}, 1, nil)
	if !errors.Is(err, apperr.ErrDimensionMismatch) {
		t.Fatalf("Search error = %v, want ErrDimensionMismatch", err)
	}
}
