package sync

import (
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/viewday/vaultsync/internal/models"
)

// startLayouts are the datetime shapes accepted from frontmatter, most
// specific first. Date-only values never reach these (they are all-day).
var startLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// isAllDay reports whether a raw date value is a plain date with no time
// component. The separator check mirrors what the calendar surface does.
func isAllDay(value string) bool {
	return !strings.Contains(value, "T")
}

// parseStart parses a timed start value, returning the matched layout so
// the computed end can be formatted with the same precision.
func parseStart(value string) (time.Time, string, bool) {
	for _, layout := range startLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, layout, true
		}
	}
	return time.Time{}, "", false
}

// addWallClock adds minutes to t in wall-clock components. time.Date
// normalises the overflowing minute field, so the calendar day only
// advances when the duration genuinely crosses midnight. No UTC-offset
// or DST arithmetic is involved.
func addWallClock(t time.Time, minutes float64) time.Time {
	whole := int(minutes)
	secs := int((minutes - float64(whole)) * 60)
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute()+whole, t.Second()+secs, t.Nanosecond(), t.Location())
}

// durationMinutes reads the duration from the primary field, falling back
// to the legacy field name. ok is false when neither holds a numeric value.
func durationMinutes(fm map[string]any) (float64, bool) {
	for _, field := range []string{models.DurationField, models.DurationFallbackField} {
		raw, present := fm[field]
		if !present || raw == nil {
			continue
		}
		if d, err := cast.ToFloat64E(raw); err == nil {
			return d, true
		}
	}
	return 0, false
}

// rawDateValue extracts the trimmed string form of a frontmatter date
// value. ok is false for missing, null, empty, or non-scalar values.
func rawDateValue(fm map[string]any, property string) (string, bool) {
	raw, present := fm[property]
	if !present || raw == nil {
		return "", false
	}
	s, err := cast.ToStringE(raw)
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}
