// Package ingest orchestrates a full vault build: walk, parse, link, chunk,
// embed, rebuild the store, and swap the live nearest-neighbor index.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/embedding"
	"golang.org/x/sync/singleflight"

	"github.com/starford/laguz/internal/embed"
	"github.com/starford/laguz/internal/parser"
	"github.com/starford/laguz/internal/store"
	"github.com/starford/laguz/internal/vault"
	"github.com/starford/laguz/internal/vector"
)

// EmbedderFactory builds the embedder for a model. Factories let tests
// substitute a deterministic embedder without a provider round trip.
type EmbedderFactory func(ctx context.Context, model string) (embedding.Embedder, error)

// Options parameterizes one ingestion run.
type Options struct {
	Root     string // vault root directory
	Model    string // embedding model name, must be registered
	MaxChars int    // chunk size limit, 0 means the default
	Recreate bool   // rebuild even when the store already carries this model
}

// Summary reports what one run produced.
type Summary struct {
	Notes   int `json:"notes"`
	Links   int `json:"links"`
	Chunks  int `json:"chunks"`
	Skipped int `json:"skipped"`
}

// Runner executes ingestion runs against one store. Runs for the same
// store are serialized; a second caller piggybacks on the in-flight run
// and receives its summary.
type Runner struct {
	Store       *store.DB
	Live        *vector.Live
	NewEmbedder EmbedderFactory
	Logger      *slog.Logger
	DBPath      string

	group singleflight.Group
}

// Run builds the store from the vault at opts.Root. Nothing is written
// unless the whole pipeline succeeds; a store built by a previous run
// keeps serving until the rebuild commits.
func (r *Runner) Run(ctx context.Context, opts Options) (Summary, error) {
	v, err, _ := r.group.Do(r.DBPath, func() (any, error) {
		return r.run(ctx, opts)
	})
	if err != nil {
		return Summary{}, err
	}
	return v.(Summary), nil
}

// Reload rebuilds the in-memory index from an already-built store, for
// serving without a fresh ingestion run. A store that was never ingested
// reports ErrUnavailable.
func (r *Runner) Reload(ctx context.Context) error {
	_, dim, err := r.Store.Meta()
	if err != nil {
		return err
	}
	return r.reloadIndex(ctx, dim)
}

func (r *Runner) run(ctx context.Context, opts Options) (Summary, error) {
	dim, err := embed.Dimension(opts.Model)
	if err != nil {
		return Summary{}, err
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = parser.DefaultMaxChars
	}

	if !opts.Recreate {
		if model, _, err := r.Store.Meta(); err == nil && model == opts.Model {
			notes, links, chunks, err := r.Store.Counts()
			if err != nil {
				return Summary{}, err
			}
			r.Logger.Info("ingest: store up to date, skipping",
				slog.String("model", opts.Model))
			if err := r.reloadIndex(ctx, dim); err != nil {
				return Summary{}, err
			}
			return Summary{Notes: notes, Links: links, Chunks: chunks}, nil
		}
	}

	vlt, err := vault.Open(opts.Root)
	if err != nil {
		return Summary{}, err
	}
	paths, err := vlt.List()
	if err != nil {
		return Summary{}, err
	}
	r.Logger.Info("ingest: starting",
		slog.String("root", vlt.Root()),
		slog.String("model", opts.Model),
		slog.Int("files", len(paths)))

	var (
		snap = store.Snapshot{Model: opts.Model, Dim: dim}
		sum  Summary
	)
	var texts []string
	var noteID, chunkID int64
	for _, path := range paths {
		data, err := vlt.Read(path)
		if err != nil {
			r.Logger.Warn("ingest: read failed",
				slog.String("path", path), slog.String("error", err.Error()))
			sum.Skipped++
			continue
		}
		note := parser.ParseNote(data, path, vlt.Root())
		noteID++
		note.ID = noteID
		snap.Notes = append(snap.Notes, note)

		snap.Links = append(snap.Links, parser.ExtractLinks(note.Body, note.Slug)...)

		for i, c := range parser.ChunkNote(note.Body, opts.MaxChars) {
			chunkID++
			snap.Chunks = append(snap.Chunks, store.ChunkRow{
				ChunkID: chunkID, NoteID: note.ID, ChunkIndex: i, Chunk: c,
			})
			texts = append(texts, parser.EmbeddingText(c, note.Title))
		}
	}
	sum.Notes = len(snap.Notes)
	sum.Links = len(snap.Links)
	sum.Chunks = len(snap.Chunks)

	embedder, err := r.NewEmbedder(ctx, opts.Model)
	if err != nil {
		return Summary{}, err
	}
	vecs, err := embed.Batch(ctx, embedder, opts.Model, texts)
	if err != nil {
		return Summary{}, err
	}
	for i, vec := range vecs {
		snap.Embeddings = append(snap.Embeddings, store.EmbeddingRow{
			ChunkID: snap.Chunks[i].ChunkID, Vector: vec,
		})
	}

	if err := r.Store.ReplaceAll(snap); err != nil {
		return Summary{}, err
	}
	if err := r.reloadIndex(ctx, dim); err != nil {
		return Summary{}, err
	}

	r.Logger.Info("ingest: done",
		slog.Int("notes", sum.Notes),
		slog.Int("links", sum.Links),
		slog.Int("chunks", sum.Chunks),
		slog.Int("skipped", sum.Skipped))
	return sum, nil
}

// reloadIndex rebuilds the in-memory index from the committed store and
// swaps it in. Queries in flight keep the previous index.
func (r *Runner) reloadIndex(ctx context.Context, dim int) error {
	rows, err := r.Store.AllEmbeddings(dim)
	if err != nil {
		return err
	}
	ix, err := vector.New(dim)
	if err != nil {
		return err
	}
	entries := make([]vector.Entry, len(rows))
	for i, row := range rows {
		entries[i] = vector.Entry{
			Ref:    vector.ChunkRef{ChunkID: row.ChunkID, NoteID: row.NoteID},
			Vector: row.Vector,
		}
	}
	if err := ix.Add(ctx, entries); err != nil {
		return fmt.Errorf("ingest: rebuild index: %w", err)
	}
	r.Live.Swap(ix)
	return nil
}
