package vault

import (
	"errors"
	"fmt"
	"os"

	"github.com/viewday/vaultsync/internal/apperr"
	"github.com/viewday/vaultsync/internal/checksum"
	"github.com/viewday/vaultsync/internal/frontmatter"
	"github.com/viewday/vaultsync/internal/index"
	"github.com/viewday/vaultsync/internal/models"
	"github.com/viewday/vaultsync/internal/storage"
)

// FSStore implements Store on top of the vault file system and the
// SQLite metadata cache. Enumeration reads the cache; mutations rewrite
// the file atomically and refresh the cache row in the same call.
type FSStore struct {
	files storage.Provider
	db    *index.DB
}

// NewFSStore creates a Store backed by files and the metadata cache.
func NewFSStore(files storage.Provider, db *index.DB) *FSStore {
	return &FSStore{files: files, db: db}
}

// AllDocs returns every cached document in path order.
func (s *FSStore) AllDocs() ([]models.Doc, error) {
	rows, err := s.db.AllDocs()
	if err != nil {
		return nil, err
	}
	docs := make([]models.Doc, len(rows))
	for i, r := range rows {
		docs[i] = r.Doc()
	}
	return docs, nil
}

// ReadMetadata parses the document's frontmatter straight from disk so
// write-backs always see the current state, not a cached one.
func (s *FSStore) ReadMetadata(path string) (map[string]any, error) {
	data, err := s.files.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	fm, _ := frontmatter.Parse(data)
	return fm, nil
}

// MutateMetadata performs a read-modify-write of one document's
// frontmatter: parse, record edits via fn, patch the YAML node tree, and
// commit with an atomic rename. The cache row is refreshed on success so
// the next scan sees the new metadata without waiting for the watcher.
func (s *FSStore) MutateMetadata(path string, fn func(fm map[string]any, m *Mutation)) error {
	data, err := s.files.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}

	fm, _ := frontmatter.Parse(data)
	var mut Mutation
	fn(fm, &mut)
	if len(mut.Ops()) == 0 {
		return nil
	}

	updated, err := frontmatter.Patch(data, mut.Ops()...)
	if err != nil {
		return fmt.Errorf("vault: patch %s: %w", path, err)
	}
	if err := s.files.Write(path, updated); err != nil {
		return err
	}
	s.refreshCache(path, updated)
	return nil
}

// Create writes a new document and indexes it.
func (s *FSStore) Create(path string, fm map[string]any, body string) error {
	if s.files.Exists(path) {
		return apperr.ErrAlreadyExists
	}
	data, err := frontmatter.Render(fm, body)
	if err != nil {
		return fmt.Errorf("vault: render %s: %w", path, err)
	}
	if err := s.files.Write(path, data); err != nil {
		return err
	}
	s.refreshCache(path, data)
	return nil
}

// Exists reports whether a document is present at path.
func (s *FSStore) Exists(path string) bool {
	return s.files.Exists(path)
}

func (s *FSStore) refreshCache(path string, data []byte) {
	fm, _ := frontmatter.Parse(data)
	_ = s.db.UpsertDoc(index.DocRow{
		Path:        path,
		Basename:    models.Basename(path),
		Checksum:    checksum.Sum(data),
		Frontmatter: fm,
	})
}

var _ Store = (*FSStore)(nil)
