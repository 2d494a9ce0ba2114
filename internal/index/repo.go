package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/viewday/vaultsync/internal/apperr"
	"github.com/viewday/vaultsync/internal/models"
)

// DocRow represents a row in the docs table.
type DocRow struct {
	Path        string
	Basename    string
	Checksum    string
	Frontmatter map[string]any
	UpdatedAt   time.Time
}

// Doc converts the row into the engine-facing document type.
func (r DocRow) Doc() models.Doc {
	return models.Doc{
		Path:        r.Path,
		Basename:    r.Basename,
		Frontmatter: r.Frontmatter,
	}
}

// UpsertDoc inserts or replaces a document's cached metadata.
func (db *DB) UpsertDoc(row DocRow) error {
	fmJSON, err := json.Marshal(row.Frontmatter)
	if err != nil {
		return fmt.Errorf("index: marshal frontmatter: %w", err)
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now()
	}
	_, err = db.conn.Exec(`
		INSERT INTO docs (path, basename, checksum, frontmatter, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			basename    = excluded.basename,
			checksum    = excluded.checksum,
			frontmatter = excluded.frontmatter,
			updated_at  = excluded.updated_at
	`, row.Path, row.Basename, row.Checksum, string(fmJSON), row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert doc: %w", err)
	}
	return nil
}

// DeleteDoc removes a document from the cache.
func (db *DB) DeleteDoc(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM docs WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete doc: %w", err)
	}
	return nil
}

// GetDoc returns one cached document, or apperr.ErrNotFound.
func (db *DB) GetDoc(path string) (*DocRow, error) {
	row := db.conn.QueryRow(`SELECT path, basename, checksum, frontmatter, updated_at FROM docs WHERE path = ?`, path)
	out, err := scanDoc(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get doc: %w", err)
	}
	return out, nil
}

// AllDocs returns every cached document ordered by path, so scan output
// is deterministic across rescans.
func (db *DB) AllDocs() ([]DocRow, error) {
	rows, err := db.conn.Query(`SELECT path, basename, checksum, frontmatter, updated_at FROM docs ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("index: all docs: %w", err)
	}
	defer rows.Close()

	var out []DocRow
	for rows.Next() {
		d, err := scanDoc(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("index: scan doc: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// AllChecksums returns path → checksum for every cached document.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM docs`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

func scanDoc(scan func(...any) error) (*DocRow, error) {
	var d DocRow
	var fmJSON string
	if err := scan(&d.Path, &d.Basename, &d.Checksum, &fmJSON, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if fmJSON != "" && fmJSON != "{}" {
		if err := json.Unmarshal([]byte(fmJSON), &d.Frontmatter); err != nil {
			// A corrupt cache row degrades to an empty mapping rather
			// than poisoning the whole scan.
			d.Frontmatter = nil
		}
	}
	return &d, nil
}
