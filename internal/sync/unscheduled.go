package sync

import (
	"strings"

	"github.com/spf13/cast"

	"github.com/viewday/vaultsync/internal/models"
)

// DetectUnscheduled walks every document against the supplied rules
// (callers may pass ad hoc subsets, including inactive rules) and
// returns documents lacking a usable date value. Results are
// deduplicated by path: the first matching rule wins.
//
// Matching mode depends on the rule's folder scope:
//   - no scope (whole vault): strict. The property key must exist with
//     an empty value; a document missing the key entirely is out of
//     scope, which keeps store-wide scans from flooding with every
//     document in the vault.
//   - scoped: relaxed. Absent and present-but-empty both count, since
//     the scope already narrows candidates.
func (e *Engine) DetectUnscheduled(rules []models.Rule) ([]models.UnscheduledItem, error) {
	docs, err := e.store.AllDocs()
	if err != nil {
		return nil, err
	}

	items := []models.UnscheduledItem{}
	for _, doc := range docs {
		for _, rule := range rules {
			if !rule.InScope(doc.Path) {
				continue
			}
			if !unscheduledUnder(doc.Frontmatter, rule) {
				continue
			}

			item := models.UnscheduledItem{
				Path:        doc.Path,
				Basename:    doc.Basename,
				Folder:      models.Folder(doc.Path),
				SourceID:    rule.ID,
				Property:    rule.Property,
				SourceColor: rule.Color,
			}
			if dur, ok := durationMinutes(doc.Frontmatter); ok {
				item.Duration = &dur
			}
			items = append(items, item)
			break // first matching rule keys this document
		}
	}
	return items, nil
}

// unscheduledUnder applies the strict/relaxed matching mode for one rule.
func unscheduledUnder(fm map[string]any, rule models.Rule) bool {
	raw, present := fm[rule.Property]
	if rule.FolderScope == "" {
		// Strict: key must exist and be empty.
		return present && isEmptyValue(raw)
	}
	// Relaxed: absent or empty both qualify.
	return !present || isEmptyValue(raw)
}

// isEmptyValue reports whether a frontmatter value carries no date. A
// non-scalar value is treated as scheduled rather than guessed at.
func isEmptyValue(raw any) bool {
	if raw == nil {
		return true
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return false
	}
	return strings.TrimSpace(s) == ""
}
