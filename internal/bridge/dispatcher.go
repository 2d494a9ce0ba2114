package bridge

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/viewday/vaultsync/internal/apperr"
	"github.com/viewday/vaultsync/internal/host"
	"github.com/viewday/vaultsync/internal/models"
	"github.com/viewday/vaultsync/internal/notes"
	"github.com/viewday/vaultsync/internal/settings"
	"github.com/viewday/vaultsync/internal/sync"
)

// Publisher pushes outbound payloads to the remote surface. Delivery is
// fire-and-forget: the surface lives in the same process boundary, so no
// acknowledgement is awaited and failures are not retried.
type Publisher interface {
	Publish(v any)
}

// Dispatcher routes validated inbound messages to the engine. One
// message is processed to completion before the next one's side effects
// are accepted; a failing handler never disables subsequent messages.
type Dispatcher struct {
	engine   *sync.Engine
	settings *settings.Manager
	creator  *notes.Creator
	host     host.Actions
	out      Publisher
	logger   *slog.Logger
}

// NewDispatcher wires the dispatcher to its collaborators.
func NewDispatcher(engine *sync.Engine, mgr *settings.Manager, creator *notes.Creator, h host.Actions, out Publisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		engine:   engine,
		settings: mgr,
		creator:  creator,
		host:     h,
		out:      out,
		logger:   logger,
	}
}

// Handle decodes and routes one raw inbound message. Malformed or
// unknown messages are dropped; handler panics are contained here.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch: handler panic", slog.Any("panic", r))
		}
	}()

	msg, kind, err := Decode(raw)
	if err != nil {
		d.logger.Warn("dispatch: dropped malformed message",
			slog.String("kind", kind), slog.String("error", err.Error()))
		return
	}
	if msg == nil {
		d.logger.Debug("dispatch: ignored unknown kind", slog.String("kind", kind))
		return
	}

	switch m := msg.(type) {
	case *ConfigureRules:
		d.configureRules(m)
	case *FetchUnscheduled:
		d.fetchUnscheduled(m)
	case *UpdateEvent:
		d.updateEvent(m)
	case *TriggerFuzzySearch:
		d.triggerFuzzy(ctx, m)
	case *UnlinkDocument:
		d.unlinkDocument(m)
	case *CreateLocalNote:
		d.createNote(m)
	case *SurfaceReady:
		d.PushSettings()
		d.PushAll()
	case *OpenExternalURL:
		if err := d.host.OpenURL(m.URL); err != nil {
			d.logger.Warn("dispatch: open url failed", slog.String("error", err.Error()))
		}
	case *CreateMeetingNote:
		d.createMeetingNote(m)
	case *OpenPeriodicNote:
		d.openPeriodicNote(m)
	}
}

// PushAll runs a full rescan and reindex and pushes both payloads.
func (d *Dispatcher) PushAll() {
	d.PushEvents()
	d.PushLinkedNotes()
}

// PushSettings sends the hello payload carrying the persisted widget id.
func (d *Dispatcher) PushSettings() {
	d.out.Publish(SettingsPayload{Kind: KindSyncSettings, WidgetID: d.settings.Get().WidgetID})
}

// PushEvents scans against the active rule set and pushes the result.
func (d *Dispatcher) PushEvents() {
	events, err := d.engine.Scan(d.settings.ActiveRules())
	if err != nil {
		d.logger.Error("dispatch: scan failed", slog.String("error", err.Error()))
		return
	}
	d.out.Publish(EventsPayload{
		Kind:    KindSyncLocalEvents,
		Events:  events,
		Sources: nonNilRules(d.settings.Get().Rules),
	})
}

// PushLinkedNotes reindexes linked notes and pushes the result.
func (d *Dispatcher) PushLinkedNotes() {
	index, err := d.engine.LinkedNotes()
	if err != nil {
		d.logger.Error("dispatch: linked notes failed", slog.String("error", err.Error()))
		return
	}
	d.out.Publish(LinkedNotesPayload{Kind: KindSyncLinkedNotes, LinkedNotes: index})
}

func (d *Dispatcher) configureRules(m *ConfigureRules) {
	if err := d.settings.ReplaceRules(m.Rules); err != nil {
		d.logger.Error("dispatch: replace rules failed", slog.String("error", err.Error()))
		return
	}
	d.PushAll()
}

func (d *Dispatcher) fetchUnscheduled(m *FetchUnscheduled) {
	items, err := d.engine.DetectUnscheduled(m.Sources)
	if err != nil {
		d.logger.Error("dispatch: unscheduled scan failed", slog.String("error", err.Error()))
		return
	}
	d.out.Publish(UnscheduledPayload{Kind: KindUnscheduledResults, Items: items})
}

func (d *Dispatcher) updateEvent(m *UpdateEvent) {
	err := d.engine.Reschedule(m.Path, m.Property, m.NewValue, m.Duration)
	if errors.Is(err, apperr.ErrNotFound) {
		d.logger.Warn("dispatch: reschedule target not found", slog.String("path", m.Path))
		return
	}
	if err != nil {
		// No automatic retry: the message is dropped and the user
		// re-drags if they still want the move.
		d.logger.Error("dispatch: reschedule failed",
			slog.String("path", m.Path), slog.String("error", err.Error()))
		return
	}
	d.PushEvents()
}

func (d *Dispatcher) triggerFuzzy(ctx context.Context, m *TriggerFuzzySearch) {
	path, err := d.host.PickDocument(ctx)
	if err != nil {
		d.logger.Warn("dispatch: document pick unavailable", slog.String("error", err.Error()))
		return
	}
	if path == "" {
		return // user dismissed the picker
	}
	if err := d.engine.Link(path, m.EventID); err != nil {
		d.logger.Error("dispatch: link failed",
			slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	d.PushLinkedNotes()
}

func (d *Dispatcher) unlinkDocument(m *UnlinkDocument) {
	err := d.engine.Unlink(m.Path, m.EventID)
	if errors.Is(err, apperr.ErrNotFound) {
		d.logger.Warn("dispatch: unlink target not found", slog.String("path", m.Path))
		return
	}
	if err != nil {
		d.logger.Error("dispatch: unlink failed",
			slog.String("path", m.Path), slog.String("error", err.Error()))
		return
	}
	d.PushLinkedNotes()
}

func (d *Dispatcher) createNote(m *CreateLocalNote) {
	path, err := d.creator.Create(m.Title, m.Frontmatter, m.Folder)
	if err != nil {
		d.logger.Error("dispatch: create note failed",
			slog.String("title", m.Title), slog.String("error", err.Error()))
		return
	}
	_ = d.host.OpenDocument(path)
	d.PushAll()
}

func (d *Dispatcher) createMeetingNote(m *CreateMeetingNote) {
	folder := d.settings.Get().MeetingNoteFolder
	path, err := d.creator.CreateMeeting(m.Meeting, folder)
	if err != nil {
		d.logger.Error("dispatch: create meeting note failed",
			slog.String("title", m.Title), slog.String("error", err.Error()))
		return
	}
	_ = d.host.OpenDocument(path)
	d.PushLinkedNotes()
}

func (d *Dispatcher) openPeriodicNote(m *OpenPeriodicNote) {
	date, err := time.Parse("2006-01-02", m.Date)
	if err != nil {
		d.logger.Warn("dispatch: bad periodic date", slog.String("date", m.Date))
		return
	}
	path, err := d.creator.ResolvePeriodic(m.Period, date, d.settings.Get().PeriodicFolder)
	if err != nil {
		d.logger.Error("dispatch: periodic note failed",
			slog.String("period", m.Period), slog.String("error", err.Error()))
		return
	}
	_ = d.host.OpenDocument(path)
}

func nonNilRules(rules []models.Rule) []models.Rule {
	if rules == nil {
		return []models.Rule{}
	}
	return rules
}
