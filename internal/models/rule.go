package models

import (
	"encoding/json"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Rule maps a frontmatter date property to calendar events.
//
// FolderScope restricts matching to a path subtree; an empty scope means the
// whole vault. Older surface versions sent the scope under different field
// names, so ingestion normalises them into FolderScope (see UnmarshalJSON).
type Rule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Property    string `json:"property"`
	FolderScope string `json:"folderScope,omitempty"`
	Color       string `json:"color,omitempty"`
	Active      bool   `json:"active"`
}

// ruleWire carries every historical spelling of the folder scope field.
type ruleWire struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Property    string `json:"property"`
	FolderScope string `json:"folderScope"`
	Folder      string `json:"folder"`
	FolderPath  string `json:"folderPath"`
	Color       string `json:"color"`
	Active      bool   `json:"active"`
}

// UnmarshalJSON decodes a rule and normalises legacy folder-scope aliases,
// most specific first: folderScope, then folder, then folderPath.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var w ruleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	scope := w.FolderScope
	if scope == "" {
		scope = w.Folder
	}
	if scope == "" {
		scope = w.FolderPath
	}
	*r = Rule{
		ID:          w.ID,
		Name:        w.Name,
		Property:    w.Property,
		FolderScope: strings.TrimSpace(scope),
		Color:       w.Color,
		Active:      w.Active,
	}
	return nil
}

// Validate checks that the rule carries the fields the engine depends on.
func (r Rule) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Property, validation.Required),
	)
}

// InScope reports whether a vault path falls under the rule's folder scope.
func (r Rule) InScope(path string) bool {
	if r.FolderScope == "" {
		return true
	}
	return strings.HasPrefix(path, r.FolderScope)
}

// ValidateRules validates every rule in a set.
func ValidateRules(rules []Rule) error {
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}
