// Package models defines the domain types shared by the sync engine,
// the bridge, and the REST surface.
package models

// EventIDPrefix namespaces locally derived calendar events so the remote
// surface can distinguish them from its own entries and diff across rescans.
const EventIDPrefix = "viewday-local"

// Frontmatter field names forming the wire contract with vault documents.
const (
	DurationField         = "duration_minutes"
	DurationFallbackField = "duration"
	LinksField            = "viewday_links"
)

// EventProps travels with every event so the surface can request a
// write-back without re-resolving identity.
type EventProps struct {
	Kind     string `json:"kind"`
	Path     string `json:"path"`
	RuleID   string `json:"ruleId"`
	Property string `json:"property"`
}

// CalendarEvent is one derived calendar entry. Events are recomputed on
// every scan and never persisted; ID is deterministic per (path, rule).
type CalendarEvent struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Start         string     `json:"start"`
	End           string     `json:"end,omitempty"`
	AllDay        bool       `json:"allDay"`
	Color         string     `json:"color,omitempty"`
	ExtendedProps EventProps `json:"extendedProps"`
}

// UnscheduledItem is a document that matches a rule's scope but lacks a
// usable date value.
type UnscheduledItem struct {
	Path        string   `json:"path"`
	Basename    string   `json:"basename"`
	Folder      string   `json:"folder"`
	SourceID    string   `json:"sourceId"`
	Property    string   `json:"property"`
	SourceColor string   `json:"sourceColor,omitempty"`
	Duration    *float64 `json:"duration,omitempty"`
}

// NoteRef identifies a vault document in linked-notes payloads.
type NoteRef struct {
	Path     string `json:"path"`
	Basename string `json:"basename"`
}

// LinkedNotesIndex maps an external event id to the documents linked to it.
type LinkedNotesIndex map[string][]NoteRef
