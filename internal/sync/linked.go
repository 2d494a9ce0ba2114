package sync

import (
	"github.com/spf13/cast"

	"github.com/viewday/vaultsync/internal/models"
)

// LinkedNotes scans every document's link field and builds the inverted
// index from external event id to linked documents. The index is
// recomputed on every call and never persisted.
func (e *Engine) LinkedNotes() (models.LinkedNotesIndex, error) {
	docs, err := e.store.AllDocs()
	if err != nil {
		return nil, err
	}

	index := models.LinkedNotesIndex{}
	for _, doc := range docs {
		for _, id := range linkIDs(doc.Frontmatter) {
			index[id] = append(index[id], models.NoteRef{
				Path:     doc.Path,
				Basename: doc.Basename,
			})
		}
	}
	return index, nil
}

// linkIDs normalises the link field value into a slice of event ids: a
// scalar becomes a one-element sequence, array elements are coerced to
// strings, everything else yields nothing.
func linkIDs(fm map[string]any) []string {
	raw, present := fm[models.LinksField]
	if !present || raw == nil {
		return nil
	}

	var out []string
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if s, err := cast.ToStringE(item); err == nil && s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range v {
			if s != "" {
				out = append(out, s)
			}
		}
	default:
		if s, err := cast.ToStringE(v); err == nil && s != "" {
			out = append(out, s)
		}
	}
	return out
}
