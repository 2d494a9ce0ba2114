package vault

import (
	"sort"

	"github.com/viewday/vaultsync/internal/apperr"
	"github.com/viewday/vaultsync/internal/models"
)

// Memory is an in-memory Store used by engine tests. Mutations apply the
// recorded ops directly to the stored mapping.
type Memory struct {
	docs   map[string]map[string]any
	bodies map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs:   make(map[string]map[string]any),
		bodies: make(map[string]string),
	}
}

// Put inserts or replaces a document's frontmatter.
func (m *Memory) Put(path string, fm map[string]any) {
	m.docs[path] = fm
}

// AllDocs returns the stored documents in path order.
func (m *Memory) AllDocs() ([]models.Doc, error) {
	paths := make([]string, 0, len(m.docs))
	for p := range m.docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	docs := make([]models.Doc, len(paths))
	for i, p := range paths {
		docs[i] = models.Doc{
			Path:        p,
			Basename:    models.Basename(p),
			Frontmatter: m.docs[p],
		}
	}
	return docs, nil
}

// ReadMetadata returns the frontmatter mapping of one document.
func (m *Memory) ReadMetadata(path string) (map[string]any, error) {
	fm, ok := m.docs[path]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return fm, nil
}

// MutateMetadata applies the recorded ops to the stored mapping.
func (m *Memory) MutateMetadata(path string, fn func(fm map[string]any, mut *Mutation)) error {
	fm, ok := m.docs[path]
	if !ok {
		return apperr.ErrNotFound
	}
	var mut Mutation
	fn(fm, &mut)
	for _, op := range mut.Ops() {
		if op.Remove {
			delete(fm, op.Key)
		} else {
			fm[op.Key] = op.Value
		}
	}
	return nil
}

// Create stores a new document.
func (m *Memory) Create(path string, fm map[string]any, body string) error {
	if _, ok := m.docs[path]; ok {
		return apperr.ErrAlreadyExists
	}
	if fm == nil {
		fm = map[string]any{}
	}
	m.docs[path] = fm
	m.bodies[path] = body
	return nil
}

// Exists reports whether a document is present at path.
func (m *Memory) Exists(path string) bool {
	_, ok := m.docs[path]
	return ok
}

// Body returns the stored body of a created document (test helper).
func (m *Memory) Body(path string) string {
	return m.bodies[path]
}

var _ Store = (*Memory)(nil)
