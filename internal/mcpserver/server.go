// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the sync engine's operations for LLM integration via
// stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/viewday/vaultsync/internal/settings"
	"github.com/viewday/vaultsync/internal/sync"
)

// Server wraps the MCP server with engine tools.
type Server struct {
	mcp      *server.MCPServer
	engine   *sync.Engine
	settings *settings.Manager
}

// New creates a new MCP server with all engine tools registered.
func New(engine *sync.Engine, mgr *settings.Manager) *Server {
	s := &Server{engine: engine, settings: mgr}

	s.mcp = server.NewMCPServer(
		"Vaultsync",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("scan_events",
		mcp.WithDescription("Derive calendar events from vault frontmatter under the active rule set."),
	), s.scanEvents)

	s.mcp.AddTool(mcp.NewTool("list_unscheduled",
		mcp.WithDescription("List documents that match a rule's scope but lack a usable date value. "+
			"Uses the persisted rule set, active or not."),
	), s.listUnscheduled)

	s.mcp.AddTool(mcp.NewTool("reschedule_note",
		mcp.WithDescription("Set or clear the date property of a vault document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. Tasks/x.md)")),
		mcp.WithString("property", mcp.Required(), mcp.Description("Frontmatter key holding the date")),
		mcp.WithString("value", mcp.Description("New date value; omit to clear the date")),
	), s.rescheduleNote)

	s.mcp.AddTool(mcp.NewTool("link_note",
		mcp.WithDescription("Link a vault document to an external calendar event id."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithString("event_id", mcp.Required(), mcp.Description("External calendar event id")),
	), s.linkNote)

	s.mcp.AddTool(mcp.NewTool("unlink_note",
		mcp.WithDescription("Remove an external calendar event link from a vault document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
		mcp.WithString("event_id", mcp.Required(), mcp.Description("External calendar event id")),
	), s.unlinkNote)

	s.mcp.AddTool(mcp.NewTool("list_linked_notes",
		mcp.WithDescription("Show the index from external calendar event ids to linked vault documents."),
	), s.listLinkedNotes)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) scanEvents(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	events, err := s.engine.Scan(s.settings.ActiveRules())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(events, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listUnscheduled(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := s.engine.DetectUnscheduled(s.settings.Get().Rules)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) rescheduleNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	property, err := req.RequireString("property")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var newValue any
	if v, vErr := req.RequireString("value"); vErr == nil && v != "" {
		newValue = v
	}
	if err := s.engine.Reschedule(path, property, newValue, nil); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reschedule %s: %v", path, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("rescheduled: %s", path)), nil
}

func (s *Server) linkNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	eventID, err := req.RequireString("event_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.engine.Link(path, eventID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("link %s: %v", path, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("linked %s to %s", path, eventID)), nil
}

func (s *Server) unlinkNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	eventID, err := req.RequireString("event_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.engine.Unlink(path, eventID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("unlink %s: %v", path, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("unlinked %s from %s", path, eventID)), nil
}

func (s *Server) listLinkedNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	index, err := s.engine.LinkedNotes()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(index) == 0 {
		return mcp.NewToolResultText("no linked notes"), nil
	}
	out, _ := json.MarshalIndent(index, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
