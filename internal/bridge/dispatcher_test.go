package bridge

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/viewday/vaultsync/internal/host"
	"github.com/viewday/vaultsync/internal/models"
	"github.com/viewday/vaultsync/internal/notes"
	"github.com/viewday/vaultsync/internal/settings"
	"github.com/viewday/vaultsync/internal/sync"
	"github.com/viewday/vaultsync/internal/vault"
)

// capture records published payloads for assertions.
type capture struct {
	payloads []any
}

func (c *capture) Publish(v any) { c.payloads = append(c.payloads, v) }

func (c *capture) byKind(kind string) []any {
	var out []any
	for _, p := range c.payloads {
		switch v := p.(type) {
		case EventsPayload:
			if v.Kind == kind {
				out = append(out, v)
			}
		case LinkedNotesPayload:
			if v.Kind == kind {
				out = append(out, v)
			}
		case UnscheduledPayload:
			if v.Kind == kind {
				out = append(out, v)
			}
		case SettingsPayload:
			if v.Kind == kind {
				out = append(out, v)
			}
		}
	}
	return out
}

// fakeHost records UI requests and serves a scripted picker result.
type fakeHost struct {
	opened   []string
	urls     []string
	pickPath string
	pickErr  error
}

func (f *fakeHost) OpenDocument(path string) error { f.opened = append(f.opened, path); return nil }
func (f *fakeHost) OpenURL(url string) error       { f.urls = append(f.urls, url); return nil }
func (f *fakeHost) PickDocument(_ context.Context) (string, error) {
	return f.pickPath, f.pickErr
}

var _ host.Actions = (*fakeHost)(nil)

type dispatchEnv struct {
	disp  *Dispatcher
	store *vault.Memory
	out   *capture
	host  *fakeHost
	mgr   *settings.Manager
}

func testDispatcher(t *testing.T) *dispatchEnv {
	t.Helper()
	store := vault.NewMemory()
	mgr, err := settings.NewManager(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatal(err)
	}
	engine := sync.New(store, slog.Default())
	out := &capture{}
	h := &fakeHost{pickErr: host.ErrNoPicker}
	disp := NewDispatcher(engine, mgr, notes.NewCreator(store), h, out, slog.Default())
	return &dispatchEnv{disp: disp, store: store, out: out, host: h, mgr: mgr}
}

func (e *dispatchEnv) handle(t *testing.T, raw string) {
	t.Helper()
	e.disp.Handle(context.Background(), []byte(raw))
}

func TestConfigureRulesPushesBothPayloads(t *testing.T) {
	env := testDispatcher(t)
	env.store.Put("a.md", map[string]any{"do_date": "2024-03-01"})

	env.handle(t, `{"kind":"CONFIGURE_RULES","rules":[{"id":"r1","property":"do_date","active":true}]}`)

	events := env.out.byKind(KindSyncLocalEvents)
	if len(events) != 1 {
		t.Fatalf("events payloads = %d, want 1", len(events))
	}
	ep := events[0].(EventsPayload)
	if len(ep.Events) != 1 || len(ep.Sources) != 1 {
		t.Errorf("payload = %+v", ep)
	}
	if len(env.out.byKind(KindSyncLinkedNotes)) != 1 {
		t.Error("linked notes payload missing")
	}
	if len(env.mgr.Get().Rules) != 1 {
		t.Error("rules not persisted")
	}
}

func TestConfigureRulesInvalidSetNotApplied(t *testing.T) {
	env := testDispatcher(t)
	env.handle(t, `{"kind":"CONFIGURE_RULES","rules":[{"property":"due"}]}`)
	if len(env.out.payloads) != 0 {
		t.Errorf("payloads = %+v, want none", env.out.payloads)
	}
	if len(env.mgr.Get().Rules) != 0 {
		t.Error("invalid rule set persisted")
	}
}

func TestFetchUnscheduledAlwaysReplies(t *testing.T) {
	env := testDispatcher(t)
	env.handle(t, `{"kind":"FETCH_UNSCHEDULED","sources":[{"id":"r1","property":"do_date"}]}`)

	replies := env.out.byKind(KindUnscheduledResults)
	if len(replies) != 1 {
		t.Fatalf("replies = %d, want 1 even when empty", len(replies))
	}
	up := replies[0].(UnscheduledPayload)
	if up.Items == nil {
		t.Error("items must be non-nil for JSON []")
	}
}

func TestFetchUnscheduledUsesSuppliedSubset(t *testing.T) {
	env := testDispatcher(t)
	env.store.Put("Tasks/a.md", map[string]any{"title": "x"})

	// The supplied rule is inactive and scoped; the detector must still
	// run it, independent of the persisted rule set.
	env.handle(t, `{"kind":"FETCH_UNSCHEDULED","sources":[{"id":"r1","property":"due","folderScope":"Tasks/","active":false}]}`)

	up := env.out.byKind(KindUnscheduledResults)[0].(UnscheduledPayload)
	if len(up.Items) != 1 || up.Items[0].Path != "Tasks/a.md" {
		t.Errorf("items = %+v", up.Items)
	}
}

func TestUpdateEventReschedulesAndPushes(t *testing.T) {
	env := testDispatcher(t)
	env.store.Put("a.md", map[string]any{"do_date": "2024-03-01"})

	env.handle(t, `{"kind":"UPDATE_LOCAL_EVENT","path":"a.md","property":"do_date","newValue":"2024-04-02"}`)

	fm, _ := env.store.ReadMetadata("a.md")
	if fm["do_date"] != "2024-04-02" {
		t.Errorf("do_date = %v", fm["do_date"])
	}
	if len(env.out.byKind(KindSyncLocalEvents)) != 1 {
		t.Error("events payload missing after reschedule")
	}
}

func TestUpdateEventNullClears(t *testing.T) {
	env := testDispatcher(t)
	env.store.Put("a.md", map[string]any{"do_date": "2024-03-01"})

	env.handle(t, `{"kind":"UPDATE_LOCAL_EVENT","path":"a.md","property":"do_date","newValue":null}`)

	fm, _ := env.store.ReadMetadata("a.md")
	if _, present := fm["do_date"]; present {
		t.Error("null newValue must remove the property")
	}
}

func TestUpdateEventMissingDocumentDoesNotPush(t *testing.T) {
	env := testDispatcher(t)
	env.handle(t, `{"kind":"UPDATE_LOCAL_EVENT","path":"ghost.md","property":"do_date","newValue":"2024-03-01"}`)
	if len(env.out.payloads) != 0 {
		t.Errorf("payloads = %+v, want none", env.out.payloads)
	}
}

func TestSurfaceReadyPushesEverything(t *testing.T) {
	env := testDispatcher(t)
	env.handle(t, `{"kind":"viewday-ready"}`)
	if len(env.out.byKind(KindSyncSettings)) != 1 {
		t.Error("settings hello missing")
	}
	if len(env.out.byKind(KindSyncLocalEvents)) != 1 {
		t.Error("events payload missing")
	}
	if len(env.out.byKind(KindSyncLinkedNotes)) != 1 {
		t.Error("linked notes payload missing")
	}
}

func TestSurfaceReadyHelloCarriesWidgetID(t *testing.T) {
	env := testDispatcher(t)
	if err := env.mgr.Update(func(s *settings.Settings) { s.WidgetID = "widget-42" }); err != nil {
		t.Fatal(err)
	}

	env.handle(t, `{"kind":"viewday-ready"}`)

	hellos := env.out.byKind(KindSyncSettings)
	if len(hellos) != 1 {
		t.Fatalf("settings payloads = %d, want 1", len(hellos))
	}
	sp := hellos[0].(SettingsPayload)
	if sp.WidgetID != "widget-42" {
		t.Errorf("widgetId = %q, want widget-42", sp.WidgetID)
	}
	// The hello arrives before the event payloads so the surface knows
	// its identity when the data lands.
	if _, ok := env.out.payloads[0].(SettingsPayload); !ok {
		t.Errorf("first payload = %T, want the settings hello", env.out.payloads[0])
	}
}

func TestTriggerFuzzyLinksPickedDocument(t *testing.T) {
	env := testDispatcher(t)
	env.store.Put("picked.md", map[string]any{"title": "x"})
	env.host.pickPath, env.host.pickErr = "picked.md", nil

	env.handle(t, `{"kind":"TRIGGER_FUZZY_SEARCH","eventId":"evt-1"}`)

	fm, _ := env.store.ReadMetadata("picked.md")
	links, _ := fm[models.LinksField].([]string)
	if len(links) != 1 || links[0] != "evt-1" {
		t.Errorf("links = %v", fm[models.LinksField])
	}
	if len(env.out.byKind(KindSyncLinkedNotes)) != 1 {
		t.Error("linked notes payload missing after link")
	}
}

func TestTriggerFuzzyDismissedPicker(t *testing.T) {
	env := testDispatcher(t)
	env.host.pickPath, env.host.pickErr = "", nil

	env.handle(t, `{"kind":"TRIGGER_FUZZY_SEARCH","eventId":"evt-1"}`)
	if len(env.out.payloads) != 0 {
		t.Error("dismissed picker must be a no-op")
	}
}

func TestUnlinkDocument(t *testing.T) {
	env := testDispatcher(t)
	env.store.Put("a.md", map[string]any{models.LinksField: []any{"evt-1", "evt-2"}})

	env.handle(t, `{"kind":"UNLINK_DOCUMENT","eventId":"evt-1","path":"a.md"}`)

	fm, _ := env.store.ReadMetadata("a.md")
	links, _ := fm[models.LinksField].([]string)
	if len(links) != 1 || links[0] != "evt-2" {
		t.Errorf("links = %v", fm[models.LinksField])
	}
	if len(env.out.byKind(KindSyncLinkedNotes)) != 1 {
		t.Error("linked notes payload missing after unlink")
	}
}

func TestCreateLocalNoteOpensAndPushes(t *testing.T) {
	env := testDispatcher(t)
	env.handle(t, `{"kind":"CREATE_LOCAL_NOTE","title":"Fresh idea","folder":"Inbox"}`)

	if !env.store.Exists("Inbox/Fresh idea.md") {
		t.Fatal("note not created")
	}
	if len(env.host.opened) != 1 || env.host.opened[0] != "Inbox/Fresh idea.md" {
		t.Errorf("opened = %v", env.host.opened)
	}
	if len(env.out.byKind(KindSyncLocalEvents)) != 1 {
		t.Error("events payload missing after create")
	}
}

func TestCreateMeetingNoteUsesConfiguredFolder(t *testing.T) {
	env := testDispatcher(t)
	if err := env.mgr.Update(func(s *settings.Settings) { s.MeetingNoteFolder = "Meetings" }); err != nil {
		t.Fatal(err)
	}

	env.handle(t, `{"kind":"create-meeting-note","title":"Kickoff","eventId":"evt-9","start":"2024-03-01T09:00"}`)

	if !env.store.Exists("Meetings/Kickoff.md") {
		t.Fatal("meeting note not created")
	}
	fm, _ := env.store.ReadMetadata("Meetings/Kickoff.md")
	links, _ := fm[models.LinksField].([]string)
	if len(links) != 1 || links[0] != "evt-9" {
		t.Errorf("back-link = %v", fm[models.LinksField])
	}
}

func TestOpenPeriodicNoteCreatesOnce(t *testing.T) {
	env := testDispatcher(t)

	env.handle(t, `{"kind":"OPEN_PERIODIC_NOTE","period":"daily","date":"2024-03-01"}`)
	if !env.store.Exists("2024-03-01.md") {
		t.Fatal("daily note not created")
	}

	// Second open resolves the existing note instead of failing.
	env.handle(t, `{"kind":"OPEN_PERIODIC_NOTE","period":"daily","date":"2024-03-01"}`)
	if len(env.host.opened) != 2 {
		t.Errorf("opened = %v, want both opens recorded", env.host.opened)
	}
}

func TestOpenExternalURLRoutedToHost(t *testing.T) {
	env := testDispatcher(t)
	env.handle(t, `{"kind":"OPEN_EXTERNAL_URL","url":"https://example.com"}`)
	if len(env.host.urls) != 1 || env.host.urls[0] != "https://example.com" {
		t.Errorf("urls = %v", env.host.urls)
	}
}

func TestMalformedMessageDropped(t *testing.T) {
	env := testDispatcher(t)
	env.handle(t, `{broken`)
	env.handle(t, `{"kind":"UNKNOWN_THING"}`)
	if len(env.out.payloads) != 0 {
		t.Errorf("payloads = %+v, want none", env.out.payloads)
	}
}

func TestHandlerFailureDoesNotDisableDispatcher(t *testing.T) {
	env := testDispatcher(t)
	env.store.Put("a.md", map[string]any{"do_date": "2024-03-01"})

	// A failing reschedule must not stop the next message.
	env.handle(t, `{"kind":"UPDATE_LOCAL_EVENT","path":"ghost.md","property":"do_date","newValue":"x"}`)
	env.handle(t, `{"kind":"viewday-ready"}`)

	if len(env.out.byKind(KindSyncLocalEvents)) != 1 {
		t.Error("dispatcher stopped after failed handler")
	}
}

func TestPushEventsEchoesFullRuleSet(t *testing.T) {
	env := testDispatcher(t)
	rules := []models.Rule{
		{ID: "on", Property: "a", Active: true},
		{ID: "off", Property: "b", Active: false},
	}
	if err := env.mgr.ReplaceRules(rules); err != nil {
		t.Fatal(err)
	}

	env.disp.PushEvents()
	ep := env.out.byKind(KindSyncLocalEvents)[0].(EventsPayload)
	if len(ep.Sources) != 2 {
		t.Errorf("sources = %+v, want full rule set including inactive", ep.Sources)
	}
}
