package sync

import (
	"fmt"
	"log/slog"

	"github.com/viewday/vaultsync/internal/models"
)

// EventID builds the deterministic event identity for a (document, rule)
// pair. Stable across rescans so the surface diffs instead of duplicating.
func EventID(path, ruleID string) string {
	return fmt.Sprintf("%s::%s::%s", models.EventIDPrefix, path, ruleID)
}

// Scan walks every document against every active rule and returns the
// derived calendar events. Exactly one event is produced per matching
// (document, rule) pair; documents without a usable date value under a
// rule's property are skipped here; finding those is the unscheduled
// detector's job. A malformed pair never aborts the rest of the scan.
func (e *Engine) Scan(rules []models.Rule) ([]models.CalendarEvent, error) {
	docs, err := e.store.AllDocs()
	if err != nil {
		return nil, err
	}

	events := []models.CalendarEvent{}
	for _, doc := range docs {
		for _, rule := range rules {
			if !rule.Active || !rule.InScope(doc.Path) {
				continue
			}
			value, ok := rawDateValue(doc.Frontmatter, rule.Property)
			if !ok {
				continue
			}

			ev := models.CalendarEvent{
				ID:     EventID(doc.Path, rule.ID),
				Title:  doc.Basename,
				Start:  value,
				AllDay: isAllDay(value),
				Color:  rule.Color,
				ExtendedProps: models.EventProps{
					Kind:     "local",
					Path:     doc.Path,
					RuleID:   rule.ID,
					Property: rule.Property,
				},
			}

			if !ev.AllDay {
				if end, ok := e.timedEnd(doc, value); ok {
					ev.End = end
				}
			}

			events = append(events, ev)
		}
	}
	return events, nil
}

// timedEnd computes start + duration in wall-clock components. Returns
// ok=false when the start is unparseable or the duration is missing or
// non-positive; the event then renders as point-in-time on the surface.
func (e *Engine) timedEnd(doc models.Doc, start string) (string, bool) {
	dur, ok := durationMinutes(doc.Frontmatter)
	if !ok || dur <= 0 {
		return "", false
	}
	t, layout, ok := parseStart(start)
	if !ok {
		e.logger.Debug("scan: unparseable start, omitting end",
			slog.String("path", doc.Path), slog.String("start", start))
		return "", false
	}
	return addWallClock(t, dur).Format(layout), true
}
