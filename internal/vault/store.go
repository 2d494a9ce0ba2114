// Package vault exposes the document store the sync engine reads and
// mutates. The engine never touches files directly; everything goes
// through Store so it stays testable against the in-memory fake.
package vault

import (
	"github.com/viewday/vaultsync/internal/frontmatter"
	"github.com/viewday/vaultsync/internal/models"
)

// Mutation records frontmatter edits requested by a MutateMetadata
// callback. Only keys named through Set or Remove are touched; everything
// else in the document survives byte-for-byte.
type Mutation struct {
	ops []frontmatter.Op
}

// Set writes value under key.
func (m *Mutation) Set(key string, value any) {
	m.ops = append(m.ops, frontmatter.Set(key, value))
}

// Remove deletes key from the frontmatter.
func (m *Mutation) Remove(key string) {
	m.ops = append(m.ops, frontmatter.Remove(key))
}

// Ops returns the recorded operations.
func (m *Mutation) Ops() []frontmatter.Op {
	return m.ops
}

// Store is the document store adapter. Implementations must make
// MutateMetadata transactional: the document is either rewritten with all
// recorded edits applied or left untouched.
type Store interface {
	// AllDocs enumerates every document with its parsed frontmatter.
	AllDocs() ([]models.Doc, error)
	// ReadMetadata returns the frontmatter mapping of one document.
	// Returns apperr.ErrNotFound when the path does not resolve.
	ReadMetadata(path string) (map[string]any, error)
	// MutateMetadata reads the document's frontmatter, passes it to fn
	// together with a Mutation recorder, and commits the recorded edits.
	MutateMetadata(path string, fn func(fm map[string]any, m *Mutation)) error
	// Create writes a new document with the given frontmatter and body.
	// Returns apperr.ErrAlreadyExists when the path is taken.
	Create(path string, fm map[string]any, body string) error
	// Exists reports whether a document is present at path.
	Exists(path string) bool
}
