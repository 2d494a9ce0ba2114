package sync

import (
	"log/slog"
	"reflect"
	"testing"

	"github.com/viewday/vaultsync/internal/models"
	"github.com/viewday/vaultsync/internal/vault"
)

func testEngine() (*Engine, *vault.Memory) {
	store := vault.NewMemory()
	return New(store, slog.Default()), store
}

func doRule() models.Rule {
	return models.Rule{ID: "r1", Name: "Do dates", Property: "do_date", Color: "#ff0000", Active: true}
}

func TestScanAllDayEvent(t *testing.T) {
	engine, store := testEngine()
	store.Put("Projects/launch.md", map[string]any{"do_date": "2024-03-01"})

	events, err := engine.Scan([]models.Rule{doRule()})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	ev := events[0]
	if ev.ID != "viewday-local::Projects/launch.md::r1" {
		t.Errorf("id = %q", ev.ID)
	}
	if ev.Title != "launch" {
		t.Errorf("title = %q", ev.Title)
	}
	if ev.Start != "2024-03-01" {
		t.Errorf("start = %q", ev.Start)
	}
	if !ev.AllDay {
		t.Error("expected all-day event")
	}
	if ev.End != "" {
		t.Errorf("all-day event must have no end, got %q", ev.End)
	}
	if ev.Color != "#ff0000" {
		t.Errorf("color = %q", ev.Color)
	}
	want := models.EventProps{Kind: "local", Path: "Projects/launch.md", RuleID: "r1", Property: "do_date"}
	if ev.ExtendedProps != want {
		t.Errorf("props = %+v", ev.ExtendedProps)
	}
}

func TestScanTimedEventWithDuration(t *testing.T) {
	engine, store := testEngine()
	store.Put("standup.md", map[string]any{
		"do_date":          "2024-03-01T09:00",
		"duration_minutes": 90,
	})

	events, err := engine.Scan([]models.Rule{doRule()})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.AllDay {
		t.Error("timed value must not be all-day")
	}
	if ev.End != "2024-03-01T10:30" {
		t.Errorf("end = %q, want 2024-03-01T10:30", ev.End)
	}
}

func TestScanDurationFallbackField(t *testing.T) {
	engine, store := testEngine()
	store.Put("a.md", map[string]any{
		"do_date":  "2024-03-01T09:00",
		"duration": 30,
	})

	events, err := engine.Scan([]models.Rule{doRule()})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if events[0].End != "2024-03-01T09:30" {
		t.Errorf("end = %q", events[0].End)
	}
}

func TestScanDurationCrossesMidnight(t *testing.T) {
	engine, store := testEngine()
	store.Put("late.md", map[string]any{
		"do_date":          "2024-03-01T23:30",
		"duration_minutes": 60,
	})

	events, err := engine.Scan([]models.Rule{doRule()})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if events[0].End != "2024-03-02T00:30" {
		t.Errorf("end = %q, want 2024-03-02T00:30", events[0].End)
	}
}

func TestScanTimedNoDuration(t *testing.T) {
	engine, store := testEngine()
	store.Put("a.md", map[string]any{"do_date": "2024-03-01T09:00"})

	events, err := engine.Scan([]models.Rule{doRule()})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if events[0].End != "" {
		t.Errorf("end = %q, want empty", events[0].End)
	}
}

func TestScanNonPositiveDurationIgnored(t *testing.T) {
	engine, store := testEngine()
	store.Put("a.md", map[string]any{
		"do_date":          "2024-03-01T09:00",
		"duration_minutes": 0,
	})

	events, err := engine.Scan([]models.Rule{doRule()})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if events[0].End != "" {
		t.Errorf("end = %q, want empty for zero duration", events[0].End)
	}
}

func TestScanSkipsMissingAndEmptyValues(t *testing.T) {
	engine, store := testEngine()
	store.Put("missing.md", map[string]any{"title": "x"})
	store.Put("empty.md", map[string]any{"do_date": ""})
	store.Put("null.md", map[string]any{"do_date": nil})
	store.Put("ok.md", map[string]any{"do_date": "2024-03-01"})

	events, err := engine.Scan([]models.Rule{doRule()})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].ExtendedProps.Path != "ok.md" {
		t.Errorf("path = %q", events[0].ExtendedProps.Path)
	}
}

func TestScanInactiveRuleSkipped(t *testing.T) {
	engine, store := testEngine()
	store.Put("a.md", map[string]any{"do_date": "2024-03-01"})

	rule := doRule()
	rule.Active = false
	events, err := engine.Scan([]models.Rule{rule})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("got %d events from inactive rule, want 0", len(events))
	}
}

func TestScanFolderScope(t *testing.T) {
	engine, store := testEngine()
	store.Put("Tasks/a.md", map[string]any{"due": "2024-03-01"})
	store.Put("Notes/b.md", map[string]any{"due": "2024-03-02"})

	rule := models.Rule{ID: "r2", Property: "due", FolderScope: "Tasks/", Active: true}
	events, err := engine.Scan([]models.Rule{rule})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].ExtendedProps.Path != "Tasks/a.md" {
		t.Errorf("path = %q", events[0].ExtendedProps.Path)
	}
}

func TestScanTwoRulesSameDocument(t *testing.T) {
	engine, store := testEngine()
	store.Put("a.md", map[string]any{
		"do_date": "2024-03-01",
		"due":     "2024-03-05",
	})

	rules := []models.Rule{
		doRule(),
		{ID: "r2", Property: "due", Active: true},
	}
	events, err := engine.Scan(rules)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	ids := map[string]bool{}
	for _, ev := range events {
		ids[ev.ID] = true
	}
	if !ids["viewday-local::a.md::r1"] || !ids["viewday-local::a.md::r2"] {
		t.Errorf("ids = %v", ids)
	}
}

func TestScanDeterministicAcrossRescans(t *testing.T) {
	engine, store := testEngine()
	store.Put("a.md", map[string]any{"do_date": "2024-03-01"})
	store.Put("b.md", map[string]any{"do_date": "2024-03-02"})

	first, err := engine.Scan([]models.Rule{doRule()})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	second, err := engine.Scan([]models.Rule{doRule()})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("rescan differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestScanEmptyStoreReturnsEmptySlice(t *testing.T) {
	engine, _ := testEngine()
	events, err := engine.Scan([]models.Rule{doRule()})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if events == nil {
		t.Fatal("events must be non-nil")
	}
	if len(events) != 0 {
		t.Fatalf("got %d events, want 0", len(events))
	}
}

func TestParseStartLayouts(t *testing.T) {
	cases := []struct {
		value string
		ok    bool
	}{
		{"2024-03-01T09:00", true},
		{"2024-03-01T09:00:30", true},
		{"2024-03-01T09:00:00Z", true},
		{"2024-03-01T09:00:00+02:00", true},
		{"not-a-date", false},
		{"2024-13-99T99:99", false},
	}
	for _, tc := range cases {
		_, _, ok := parseStart(tc.value)
		if ok != tc.ok {
			t.Errorf("parseStart(%q) ok = %v, want %v", tc.value, ok, tc.ok)
		}
	}
}

func TestScanEndKeepsStartPrecision(t *testing.T) {
	engine, store := testEngine()
	store.Put("a.md", map[string]any{
		"do_date":          "2024-03-01T09:00:00Z",
		"duration_minutes": 45,
	})

	events, err := engine.Scan([]models.Rule{doRule()})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if events[0].End != "2024-03-01T09:45:00Z" {
		t.Errorf("end = %q, want 2024-03-01T09:45:00Z", events[0].End)
	}
}

func TestScanFractionalDuration(t *testing.T) {
	engine, store := testEngine()
	store.Put("a.md", map[string]any{
		"do_date":          "2024-03-01T09:00:00",
		"duration_minutes": 1.5,
	})

	events, err := engine.Scan([]models.Rule{doRule()})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if events[0].End != "2024-03-01T09:01:30" {
		t.Errorf("end = %q, want 2024-03-01T09:01:30", events[0].End)
	}
}
