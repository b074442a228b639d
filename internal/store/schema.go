package store

// The relational model mirrors the ingestion pipeline: one row per note,
// per link edge (dangling targets allowed), per chunk, per chunk vector,
// plus tag hyperedges and a small metadata table recording the embedding
// model the store was built with.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	note_id       INTEGER PRIMARY KEY,
	file_path     TEXT NOT NULL UNIQUE,
	slug          TEXT NOT NULL UNIQUE,
	title         TEXT NOT NULL DEFAULT '',
	content       TEXT NOT NULL DEFAULT '',
	frontmatter   TEXT NOT NULL DEFAULT '{}',
	tags          TEXT NOT NULL DEFAULT '[]',
	aliases       TEXT NOT NULL DEFAULT '[]',
	source_type   TEXT NOT NULL DEFAULT '',
	source_title  TEXT NOT NULL DEFAULT '',
	source_author TEXT NOT NULL DEFAULT '',
	source_url    TEXT NOT NULL DEFAULT '',
	word_count    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS links (
	link_id     INTEGER PRIMARY KEY,
	source_slug TEXT NOT NULL,
	target_slug TEXT NOT NULL,
	link_text   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS chunks (
	chunk_id        INTEGER PRIMARY KEY,
	note_id         INTEGER NOT NULL REFERENCES notes(note_id),
	chunk_index     INTEGER NOT NULL,
	content         TEXT NOT NULL,
	heading_context TEXT NOT NULL DEFAULT '',
	chunk_type      TEXT NOT NULL DEFAULT '',
	start_line      INTEGER NOT NULL DEFAULT 0,
	end_line        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS embeddings (
	embedding_id INTEGER PRIMARY KEY,
	chunk_id     INTEGER NOT NULL UNIQUE REFERENCES chunks(chunk_id),
	vector       BLOB NOT NULL,
	model_name   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS hyperedges (
	hyperedge_id INTEGER PRIMARY KEY,
	edge_type    TEXT NOT NULL,
	edge_value   TEXT NOT NULL,
	UNIQUE(edge_type, edge_value)
);

CREATE TABLE IF NOT EXISTS hyperedge_members (
	hyperedge_id INTEGER NOT NULL REFERENCES hyperedges(hyperedge_id),
	note_id      INTEGER NOT NULL REFERENCES notes(note_id),
	PRIMARY KEY (hyperedge_id, note_id)
);

CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_links_source ON links(source_slug);
CREATE INDEX IF NOT EXISTS idx_links_target ON links(target_slug);
CREATE INDEX IF NOT EXISTS idx_chunks_note ON chunks(note_id);
CREATE INDEX IF NOT EXISTS idx_members_note ON hyperedge_members(note_id);
`

// dropSQL removes every table in reverse dependency order; executed inside
// the rebuild transaction so readers never observe a half-dropped schema.
const dropSQL = `
DROP TABLE IF EXISTS hyperedge_members;
DROP TABLE IF EXISTS hyperedges;
DROP TABLE IF EXISTS embeddings;
DROP TABLE IF EXISTS chunks;
DROP TABLE IF EXISTS links;
DROP TABLE IF EXISTS notes;
DROP TABLE IF EXISTS metadata;
`

// Metadata keys.
const (
	MetaModelName    = "model_name"
	MetaEmbeddingDim = "embedding_dim"
)
