// Package notes creates vault documents on behalf of the remote surface:
// plain notes, formatted meeting notes, and date-named periodic notes.
package notes

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/viewday/vaultsync/internal/models"
	"github.com/viewday/vaultsync/internal/vault"
)

// Creator writes new documents through the vault store.
type Creator struct {
	store vault.Store
}

// NewCreator creates a Creator over the given store.
func NewCreator(store vault.Store) *Creator {
	return &Creator{store: store}
}

// Create writes a new note with the given frontmatter under folder and
// returns its vault path. The title becomes the filename.
func (c *Creator) Create(title string, fm map[string]any, folder string) (string, error) {
	p := notePath(folder, title)
	if err := c.store.Create(p, fm, ""); err != nil {
		return "", err
	}
	return p, nil
}

// Meeting carries the structured fields of a remote calendar event that
// a meeting note is generated from.
type Meeting struct {
	Title     string   `json:"title"`
	EventID   string   `json:"eventId"`
	Start     string   `json:"start"`
	End       string   `json:"end,omitempty"`
	Attendees []string `json:"attendees,omitempty"`
}

// CreateMeeting formats a meeting note under folder. The frontmatter
// carries a link back to the event so the linked-notes indexer picks the
// note up on the next scan.
func (c *Creator) CreateMeeting(m Meeting, folder string) (string, error) {
	fm := map[string]any{
		"title":           m.Title,
		"meeting_start":   m.Start,
		models.LinksField: []string{m.EventID},
	}
	if m.End != "" {
		fm["meeting_end"] = m.End
	}

	var body strings.Builder
	fmt.Fprintf(&body, "# %s\n\n", m.Title)
	if len(m.Attendees) > 0 {
		body.WriteString("## Attendees\n\n")
		for _, a := range m.Attendees {
			fmt.Fprintf(&body, "- %s\n", a)
		}
		body.WriteString("\n")
	}
	body.WriteString("## Notes\n")

	p := notePath(folder, m.Title)
	if err := c.store.Create(p, fm, body.String()); err != nil {
		return "", err
	}
	return p, nil
}

// Periodic periods.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// ResolvePeriodic returns the vault path of the periodic note for the
// given period and date, creating it with a minimal frontmatter block
// when absent.
func (c *Creator) ResolvePeriodic(period string, date time.Time, folder string) (string, error) {
	name, err := periodicName(period, date)
	if err != nil {
		return "", err
	}
	p := notePath(folder, name)
	if c.store.Exists(p) {
		return p, nil
	}
	fm := map[string]any{"period": period}
	if err := c.store.Create(p, fm, ""); err != nil {
		return "", err
	}
	return p, nil
}

// periodicName follows the host's naming convention per period.
func periodicName(period string, date time.Time) (string, error) {
	switch period {
	case PeriodDaily:
		return date.Format("2006-01-02"), nil
	case PeriodWeekly:
		year, week := date.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week), nil
	case PeriodMonthly:
		return date.Format("2006-01"), nil
	default:
		return "", fmt.Errorf("notes: unknown period %q", period)
	}
}

// notePath joins folder and a sanitised title into a .md vault path.
func notePath(folder, title string) string {
	name := sanitize(title)
	if name == "" {
		name = "Untitled"
	}
	if folder == "" {
		return name + ".md"
	}
	return path.Join(folder, name+".md")
}

// sanitize strips characters the host forbids in filenames.
func sanitize(title string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "", "?", "", `"`, "'", "<", "", ">", "", "|", "-",
	)
	return strings.TrimSpace(replacer.Replace(title))
}
