// Package bridge is the message boundary between the engine and the
// remote calendar surface. Inbound messages are decoded into one typed
// variant per kind and validated before dispatch; unknown kinds are
// ignored so newer surface versions stay compatible.
package bridge

import (
	"encoding/json"
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/viewday/vaultsync/internal/models"
	"github.com/viewday/vaultsync/internal/notes"
)

var httpURLRe = regexp.MustCompile(`^https?://`)

// Inbound message kinds.
const (
	KindConfigureRules    = "CONFIGURE_RULES"
	KindFetchUnscheduled  = "FETCH_UNSCHEDULED"
	KindUpdateLocalEvent  = "UPDATE_LOCAL_EVENT"
	KindUpdateNoteDate    = "UPDATE_NOTE_DATE"
	KindTriggerFuzzy      = "TRIGGER_FUZZY_SEARCH"
	KindUnlinkDocument    = "UNLINK_DOCUMENT"
	KindCreateLocalNote   = "CREATE_LOCAL_NOTE"
	KindSurfaceReady      = "viewday-ready"
	KindOpenExternalURL   = "OPEN_EXTERNAL_URL"
	KindCreateMeetingNote = "create-meeting-note"
	KindOpenPeriodicNote  = "OPEN_PERIODIC_NOTE"
)

// Outbound message kinds.
const (
	KindSyncLocalEvents    = "SYNC_LOCAL_EVENTS"
	KindSyncLinkedNotes    = "SYNC_LINKED_NOTES"
	KindUnscheduledResults = "UNSCHEDULED_RESULTS"
	KindSyncSettings       = "SYNC_SETTINGS"
)

type envelope struct {
	Kind string `json:"kind"`
}

// ConfigureRules replaces the persisted rule set.
type ConfigureRules struct {
	Rules []models.Rule `json:"rules"`
}

// Validate checks every rule in the new set.
func (m ConfigureRules) Validate() error {
	return models.ValidateRules(m.Rules)
}

// FetchUnscheduled runs the unscheduled detector over an ad hoc rule subset.
type FetchUnscheduled struct {
	Sources []models.Rule `json:"sources"`
}

// Validate checks the supplied rule subset.
func (m FetchUnscheduled) Validate() error {
	return models.ValidateRules(m.Sources)
}

// UpdateEvent reschedules a document's date property. NewValue nil is
// the clear signal.
type UpdateEvent struct {
	Path     string   `json:"path"`
	Property string   `json:"property"`
	NewValue any      `json:"newValue"`
	Duration *float64 `json:"duration,omitempty"`
}

// Validate requires path and property.
func (m UpdateEvent) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Path, validation.Required),
		validation.Field(&m.Property, validation.Required),
	)
}

// TriggerFuzzySearch asks the host for a document to link to an event.
type TriggerFuzzySearch struct {
	EventID string `json:"eventId"`
}

// Validate requires the event id.
func (m TriggerFuzzySearch) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.EventID, validation.Required),
	)
}

// UnlinkDocument removes an event link from a document.
type UnlinkDocument struct {
	EventID string `json:"eventId"`
	Path    string `json:"path"`
}

// Validate requires both identifiers.
func (m UnlinkDocument) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.EventID, validation.Required),
		validation.Field(&m.Path, validation.Required),
	)
}

// CreateLocalNote creates a new vault document.
type CreateLocalNote struct {
	Title       string         `json:"title"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Folder      string         `json:"folder,omitempty"`
}

// Validate requires a title.
func (m CreateLocalNote) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required),
	)
}

// SurfaceReady signals the surface finished rendering; no fields.
type SurfaceReady struct{}

// OpenExternalURL opens a URL in the external browser.
type OpenExternalURL struct {
	URL string `json:"url"`
}

// Validate requires an absolute http(s) URL.
func (m OpenExternalURL) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.URL, validation.Required, validation.Match(httpURLRe)),
	)
}

// CreateMeetingNote creates a formatted note from a remote calendar event.
type CreateMeetingNote struct {
	notes.Meeting
}

// Validate requires title and event id.
func (m CreateMeetingNote) Validate() error {
	return validation.ValidateStruct(&m.Meeting,
		validation.Field(&m.Meeting.Title, validation.Required),
		validation.Field(&m.Meeting.EventID, validation.Required),
	)
}

// OpenPeriodicNote resolves or creates a date-named document.
type OpenPeriodicNote struct {
	Period string `json:"period"`
	Date   string `json:"date"`
}

// Validate constrains the period to the known conventions.
func (m OpenPeriodicNote) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Period, validation.Required,
			validation.In(notes.PeriodDaily, notes.PeriodWeekly, notes.PeriodMonthly)),
		validation.Field(&m.Date, validation.Required, validation.Date("2006-01-02")),
	)
}

// Decode parses a raw inbound message into its typed variant. Unknown
// kinds return (nil, "", nil) and are ignored by the dispatcher.
func Decode(raw []byte) (msg any, kind string, err error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, "", fmt.Errorf("bridge: decode envelope: %w", err)
	}

	decode := func(target any) (any, string, error) {
		if err := json.Unmarshal(raw, target); err != nil {
			return nil, env.Kind, fmt.Errorf("bridge: decode %s: %w", env.Kind, err)
		}
		if v, ok := target.(validation.Validatable); ok {
			if err := v.Validate(); err != nil {
				return nil, env.Kind, fmt.Errorf("bridge: invalid %s: %w", env.Kind, err)
			}
		}
		return target, env.Kind, nil
	}

	switch env.Kind {
	case KindConfigureRules:
		return decode(&ConfigureRules{})
	case KindFetchUnscheduled:
		return decode(&FetchUnscheduled{})
	case KindUpdateLocalEvent, KindUpdateNoteDate:
		return decode(&UpdateEvent{})
	case KindTriggerFuzzy:
		return decode(&TriggerFuzzySearch{})
	case KindUnlinkDocument:
		return decode(&UnlinkDocument{})
	case KindCreateLocalNote:
		return decode(&CreateLocalNote{})
	case KindSurfaceReady:
		return &SurfaceReady{}, env.Kind, nil
	case KindOpenExternalURL:
		return decode(&OpenExternalURL{})
	case KindCreateMeetingNote:
		return decode(&CreateMeetingNote{})
	case KindOpenPeriodicNote:
		return decode(&OpenPeriodicNote{})
	default:
		return nil, env.Kind, nil
	}
}

// EventsPayload is the SYNC_LOCAL_EVENTS outbound message. The rule set
// is echoed back so the surface can confirm active/inactive display state.
type EventsPayload struct {
	Kind    string                 `json:"kind"`
	Events  []models.CalendarEvent `json:"events"`
	Sources []models.Rule          `json:"sources"`
}

// LinkedNotesPayload is the SYNC_LINKED_NOTES outbound message.
type LinkedNotesPayload struct {
	Kind        string                  `json:"kind"`
	LinkedNotes models.LinkedNotesIndex `json:"linkedNotes"`
}

// SettingsPayload is the SYNC_SETTINGS hello message, sent when the
// surface announces readiness so it can restore its persisted identity.
type SettingsPayload struct {
	Kind     string `json:"kind"`
	WidgetID string `json:"widgetId"`
}

// UnscheduledPayload is the UNSCHEDULED_RESULTS outbound message. Always
// sent, even when empty, so the surface can tell "no candidates" from
// "no response".
type UnscheduledPayload struct {
	Kind  string                   `json:"kind"`
	Items []models.UnscheduledItem `json:"items"`
}
