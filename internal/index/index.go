// Package index provides a SQLite-backed frontmatter cache so engine
// scans read parsed metadata instead of re-reading every vault file.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS docs (
	path        TEXT PRIMARY KEY,
	basename    TEXT NOT NULL DEFAULT '',
	checksum    TEXT NOT NULL DEFAULT '',
	frontmatter TEXT NOT NULL DEFAULT '{}',
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_docs_basename ON docs(basename);
`

// DB wraps a sql.DB with cache-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// DocIndex defines the interface for cache operations. Consumers should
// depend on this interface rather than the concrete *DB type to
// facilitate testing with mocks.
type DocIndex interface {
	UpsertDoc(row DocRow) error
	DeleteDoc(path string) error
	GetDoc(path string) (*DocRow, error)
	AllDocs() ([]DocRow, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies DocIndex at compile time.
var _ DocIndex = (*DB)(nil)
