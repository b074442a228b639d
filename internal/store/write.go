package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/starford/laguz/internal/apperr"
	"github.com/starford/laguz/internal/models"
)

// ChunkRow ties a chunk to its note and in-note position.
type ChunkRow struct {
	ChunkID    int64
	NoteID     int64
	ChunkIndex int
	models.Chunk
}

// EmbeddingRow is one chunk vector, order-aligned with the chunk list it
// was produced from.
type EmbeddingRow struct {
	ChunkID int64
	Vector  []float32
}

// Snapshot is the complete logical content of one ingestion run.
type Snapshot struct {
	Model      string
	Dim        int
	Notes      []models.Note
	Links      []models.Link
	Chunks     []ChunkRow
	Embeddings []EmbeddingRow
}

// ReplaceAll rebuilds the store from a snapshot inside a single
// transaction: drop, recreate, insert everything, record the model
// identity. WAL readers keep the pre-rebuild state until commit, so no
// reader ever observes a half-dropped schema.
func (db *DB) ReplaceAll(snap Snapshot) error {
	for _, e := range snap.Embeddings {
		if len(e.Vector) != snap.Dim {
			return fmt.Errorf("store: chunk %d vector width %d, want %d: %w",
				e.ChunkID, len(e.Vector), snap.Dim, apperr.ErrDimensionMismatch)
		}
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if _, err := tx.Exec(dropSQL); err != nil {
		return fmt.Errorf("store: drop tables: %w", err)
	}
	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("store: recreate schema: %w", err)
	}

	for _, kv := range [][2]string{
		{MetaModelName, snap.Model},
		{MetaEmbeddingDim, strconv.Itoa(snap.Dim)},
	} {
		if _, err := tx.Exec(`INSERT INTO metadata (key, value) VALUES (?, ?)`, kv[0], kv[1]); err != nil {
			return fmt.Errorf("store: insert metadata: %w", err)
		}
	}

	noteStmt, err := tx.Prepare(`
		INSERT INTO notes (note_id, file_path, slug, title, content, frontmatter, tags, aliases,
			source_type, source_title, source_author, source_url, word_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare note insert: %w", err)
	}
	defer noteStmt.Close()

	for _, n := range snap.Notes {
		fm := "{}"
		if n.Frontmatter != nil {
			if raw, err := json.Marshal(n.Frontmatter); err == nil {
				fm = string(raw)
			}
		}
		tags, _ := json.Marshal(emptyIfNil(n.Tags))
		aliases, _ := json.Marshal(emptyIfNil(n.Aliases))
		if _, err := noteStmt.Exec(n.ID, n.FilePath, n.Slug, n.Title, n.Body, fm,
			string(tags), string(aliases),
			n.SourceType, n.SourceTitle, n.SourceAuthor, n.SourceURL, n.WordCount); err != nil {
			return fmt.Errorf("store: insert note %s: %w", n.Slug, err)
		}
	}

	linkStmt, err := tx.Prepare(`INSERT INTO links (source_slug, target_slug, link_text) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare link insert: %w", err)
	}
	defer linkStmt.Close()

	for _, l := range snap.Links {
		if _, err := linkStmt.Exec(l.SourceSlug, l.TargetSlug, l.LinkText); err != nil {
			return fmt.Errorf("store: insert link: %w", err)
		}
	}

	chunkStmt, err := tx.Prepare(`
		INSERT INTO chunks (chunk_id, note_id, chunk_index, content, heading_context, chunk_type, start_line, end_line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare chunk insert: %w", err)
	}
	defer chunkStmt.Close()

	for _, c := range snap.Chunks {
		if _, err := chunkStmt.Exec(c.ChunkID, c.NoteID, c.ChunkIndex,
			c.Content, c.HeadingContext, c.Type, c.StartLine, c.EndLine); err != nil {
			return fmt.Errorf("store: insert chunk %d: %w", c.ChunkID, err)
		}
	}

	embStmt, err := tx.Prepare(`INSERT INTO embeddings (chunk_id, vector, model_name) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare embedding insert: %w", err)
	}
	defer embStmt.Close()

	for _, e := range snap.Embeddings {
		if _, err := embStmt.Exec(e.ChunkID, encodeVector(e.Vector), snap.Model); err != nil {
			return fmt.Errorf("store: insert embedding for chunk %d: %w", e.ChunkID, err)
		}
	}

	if err := insertHyperedges(tx, snap.Notes); err != nil {
		return err
	}

	return tx.Commit()
}

// insertHyperedges creates one hyperedge per distinct tag value, lazily on
// first use, and records note membership. Duplicate memberships are no-ops.
func insertHyperedges(tx *sql.Tx, notes []models.Note) error {
	ids := make(map[string]int64)
	for _, n := range notes {
		for _, tag := range n.Tags {
			id, ok := ids[tag]
			if !ok {
				res, err := tx.Exec(`INSERT INTO hyperedges (edge_type, edge_value) VALUES ('tag', ?)`, tag)
				if err != nil {
					return fmt.Errorf("store: insert hyperedge %q: %w", tag, err)
				}
				id, err = res.LastInsertId()
				if err != nil {
					return fmt.Errorf("store: hyperedge id: %w", err)
				}
				ids[tag] = id
			}
			if _, err := tx.Exec(`INSERT OR IGNORE INTO hyperedge_members (hyperedge_id, note_id) VALUES (?, ?)`,
				id, n.ID); err != nil {
				return fmt.Errorf("store: insert membership: %w", err)
			}
		}
	}
	return nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
