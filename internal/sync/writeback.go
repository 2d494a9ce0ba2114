package sync

import (
	"log/slog"

	"github.com/viewday/vaultsync/internal/models"
	"github.com/viewday/vaultsync/internal/vault"
)

// Reschedule sets the rule-designated date property to newValue. A nil
// newValue is the clear signal: the property is removed instead of a
// literal null being written. When a duration accompanies the move it is
// written to the duration field. No other metadata key is touched.
func (e *Engine) Reschedule(path, property string, newValue any, duration *float64) error {
	err := e.store.MutateMetadata(path, func(_ map[string]any, m *vault.Mutation) {
		if newValue == nil {
			m.Remove(property)
		} else {
			m.Set(property, newValue)
		}
		if duration != nil {
			m.Set(models.DurationField, *duration)
		}
	})
	if err != nil {
		return err
	}
	e.logger.Info("writeback: rescheduled",
		slog.String("path", path), slog.String("property", property))
	return nil
}

// Link adds eventID to the document's link field. Absent field → new
// single-element sequence; scalar → two-element sequence with the old
// value first; array → append. Idempotent: linking an id twice leaves a
// single occurrence.
func (e *Engine) Link(path, eventID string) error {
	return e.store.MutateMetadata(path, func(fm map[string]any, m *vault.Mutation) {
		existing := linkIDs(fm)
		for _, id := range existing {
			if id == eventID {
				return // already linked
			}
		}
		m.Set(models.LinksField, append(existing, eventID))
	})
}

// Unlink removes eventID from the document's link field. A scalar field
// equal to the id becomes an empty sequence; an array is filtered; an
// absent field is a no-op.
func (e *Engine) Unlink(path, eventID string) error {
	return e.store.MutateMetadata(path, func(fm map[string]any, m *vault.Mutation) {
		if _, present := fm[models.LinksField]; !present {
			return
		}
		existing := linkIDs(fm)
		remaining := []string{}
		for _, id := range existing {
			if id != eventID {
				remaining = append(remaining, id)
			}
		}
		if len(remaining) == len(existing) {
			return // id was not linked
		}
		m.Set(models.LinksField, remaining)
	})
}
