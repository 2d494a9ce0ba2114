package models

import (
	"path"
	"strings"
	"time"
)

// Doc is a vault document as seen by the engine: a path plus its parsed
// frontmatter. The engine never owns documents, only reads and mutates
// metadata through the vault store.
type Doc struct {
	Path        string         `json:"path"`
	Basename    string         `json:"basename"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
}

// DocMeta is a lightweight representation returned by list operations.
type DocMeta struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Basename derives the display name for a vault path: the final path
// element without its .md extension.
func Basename(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimSuffix(base, ".md")
}

// Folder returns the containing directory of a vault path, empty for
// documents at the vault root.
func Folder(p string) string {
	dir := path.Dir(strings.ReplaceAll(p, "\\", "/"))
	if dir == "." {
		return ""
	}
	return dir
}
