// Package store implements the SQLite-backed knowledge store: notes, link
// edges, chunks, chunk vectors, and tag hyperedges.
package store

import (
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/laguz/internal/apperr"
)

// DB wraps a sql.DB with store-specific operations. The ingestion runner is
// the only writer; every retrieval query is read-only.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Meta returns the embedding model name and dimension the store was built
// with. A store that has never been ingested reports ErrUnavailable.
func (db *DB) Meta() (model string, dim int, err error) {
	rows, err := db.conn.Query(`SELECT key, value FROM metadata WHERE key IN (?, ?)`, MetaModelName, MetaEmbeddingDim)
	if err != nil {
		return "", 0, apperr.ErrUnavailable
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return "", 0, fmt.Errorf("store: meta scan: %w", err)
		}
		switch k {
		case MetaModelName:
			model = v
		case MetaEmbeddingDim:
			dim, _ = strconv.Atoi(v)
		}
	}
	if err := rows.Err(); err != nil {
		return "", 0, fmt.Errorf("store: meta: %w", err)
	}
	if model == "" || dim == 0 {
		return "", 0, apperr.ErrUnavailable
	}
	return model, dim, nil
}
