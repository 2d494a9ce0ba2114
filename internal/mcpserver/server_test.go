package mcpserver

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/viewday/vaultsync/internal/models"
	"github.com/viewday/vaultsync/internal/settings"
	"github.com/viewday/vaultsync/internal/sync"
	"github.com/viewday/vaultsync/internal/vault"
)

func testServer(t *testing.T) (*Server, *vault.Memory) {
	t.Helper()
	store := vault.NewMemory()
	mgr, err := settings.NewManager(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := mgr.ReplaceRules([]models.Rule{{ID: "r1", Property: "do_date", Active: true}}); err != nil {
		t.Fatal(err)
	}
	engine := sync.New(store, slog.Default())
	return New(engine, mgr), store
}

func callTool(t *testing.T, s *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error
	ctx := context.Background()
	switch name {
	case "scan_events":
		result, err = s.scanEvents(ctx, req)
	case "list_unscheduled":
		result, err = s.listUnscheduled(ctx, req)
	case "reschedule_note":
		result, err = s.rescheduleNote(ctx, req)
	case "link_note":
		result, err = s.linkNote(ctx, req)
	case "unlink_note":
		result, err = s.unlinkNote(ctx, req)
	case "list_linked_notes":
		result, err = s.listLinkedNotes(ctx, req)
	default:
		t.Fatalf("unknown tool %q", name)
	}
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("empty result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type %T", result.Content[0])
	}
	return text.Text
}

func TestScanEventsTool(t *testing.T) {
	s, store := testServer(t)
	store.Put("a.md", map[string]any{"do_date": "2024-03-01"})

	result := callTool(t, s, "scan_events", nil)
	if result.IsError {
		t.Fatalf("error result: %s", resultText(t, result))
	}
	text := resultText(t, result)
	if !strings.Contains(text, "viewday-local::a.md::r1") {
		t.Errorf("output missing event id: %s", text)
	}
}

func TestListUnscheduledTool(t *testing.T) {
	s, store := testServer(t)
	store.Put("empty.md", map[string]any{"do_date": ""})

	result := callTool(t, s, "list_unscheduled", nil)
	text := resultText(t, result)
	if !strings.Contains(text, "empty.md") {
		t.Errorf("output missing unscheduled document: %s", text)
	}
}

func TestRescheduleNoteTool(t *testing.T) {
	s, store := testServer(t)
	store.Put("a.md", map[string]any{"do_date": "2024-03-01"})

	result := callTool(t, s, "reschedule_note", map[string]any{
		"path":     "a.md",
		"property": "do_date",
		"value":    "2024-04-02",
	})
	if result.IsError {
		t.Fatalf("error result: %s", resultText(t, result))
	}
	fm, _ := store.ReadMetadata("a.md")
	if fm["do_date"] != "2024-04-02" {
		t.Errorf("do_date = %v", fm["do_date"])
	}
}

func TestRescheduleNoteToolClears(t *testing.T) {
	s, store := testServer(t)
	store.Put("a.md", map[string]any{"do_date": "2024-03-01"})

	result := callTool(t, s, "reschedule_note", map[string]any{
		"path":     "a.md",
		"property": "do_date",
	})
	if result.IsError {
		t.Fatalf("error result: %s", resultText(t, result))
	}
	fm, _ := store.ReadMetadata("a.md")
	if _, present := fm["do_date"]; present {
		t.Error("omitted value must clear the property")
	}
}

func TestRescheduleNoteToolMissingArgs(t *testing.T) {
	s, _ := testServer(t)
	result := callTool(t, s, "reschedule_note", map[string]any{"path": "a.md"})
	if !result.IsError {
		t.Error("missing property accepted")
	}
}

func TestLinkAndUnlinkTools(t *testing.T) {
	s, store := testServer(t)
	store.Put("a.md", map[string]any{"title": "x"})

	result := callTool(t, s, "link_note", map[string]any{"path": "a.md", "event_id": "evt-1"})
	if result.IsError {
		t.Fatalf("link error: %s", resultText(t, result))
	}

	listed := resultText(t, callTool(t, s, "list_linked_notes", nil))
	if !strings.Contains(listed, "evt-1") {
		t.Errorf("index missing link: %s", listed)
	}

	result = callTool(t, s, "unlink_note", map[string]any{"path": "a.md", "event_id": "evt-1"})
	if result.IsError {
		t.Fatalf("unlink error: %s", resultText(t, result))
	}

	listed = resultText(t, callTool(t, s, "list_linked_notes", nil))
	if listed != "no linked notes" {
		t.Errorf("listed = %s", listed)
	}
}

func TestRescheduleMissingDocumentIsError(t *testing.T) {
	s, _ := testServer(t)
	result := callTool(t, s, "reschedule_note", map[string]any{
		"path":     "ghost.md",
		"property": "do_date",
		"value":    "2024-03-01",
	})
	if !result.IsError {
		t.Error("missing document accepted")
	}
}
