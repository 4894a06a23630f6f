// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes jotgrid note operations for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/jotgrid/internal/models"
	"github.com/starford/jotgrid/internal/noteservice"
	"github.com/starford/jotgrid/internal/status"
	"github.com/starford/jotgrid/internal/store"
)

const notesResourceURI = "jotgrid://notes"

// Server wraps the MCP server with jotgrid tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
	now func() time.Time
}

// New creates a new MCP server with all tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc, now: time.Now}

	s.mcp = server.NewMCPServer(
		"jotgrid",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes as JSON, most recent first."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("save_note",
		mcp.WithDescription("Create a note, or replace the note with the given id entirely."),
		mcp.WithNumber("id", mcp.Description("Id of the note to replace; omit to create a new note")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Note body")),
		mcp.WithString("date", mcp.Description("RFC 3339 timestamp; defaults to now")),
	), s.saveNote)

	s.mcp.AddTool(mcp.NewTool("delete_notes",
		mcp.WithDescription("Delete the notes with the given ids. Unknown ids are ignored."),
		mcp.WithArray("ids", mcp.Required(),
			mcp.Description("Ids of the notes to delete"),
			mcp.Items(map[string]any{"type": "integer"})),
	), s.deleteNotes)

	s.mcp.AddResource(
		mcp.NewResource(notesResourceURI, "Notes",
			mcp.WithResourceDescription("Every stored note as JSON, most recent first."),
			mcp.WithMIMEType("application/json"),
		),
		s.readNotesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) listNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := status.Last(s.svc.List(ctx))
	if st.State == status.Failed {
		return mcp.NewToolResultError(st.Message), nil
	}
	out, err := json.MarshalIndent(st.Value, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode notes: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) saveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := req.GetArguments()

	var id int64
	if raw, ok := args["id"]; ok && raw != nil {
		if id, err = toInt64(raw); err != nil || id < 0 {
			return mcp.NewToolResultError(fmt.Sprintf("invalid id: %v", raw)), nil
		}
	}

	date := s.now()
	if raw, ok := args["date"].(string); ok && raw != "" {
		if date, err = time.Parse(time.RFC3339, raw); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid date: %v", err)), nil
		}
	}
	if err := store.CheckDate(date); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid date: %v", err)), nil
	}

	st := status.Last(s.svc.Save(ctx, models.Note{ID: id, Text: text, Date: date.UTC()}))
	if st.State == status.Failed {
		return mcp.NewToolResultError(st.Message), nil
	}
	if id == 0 {
		return mcp.NewToolResultText("saved new note"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved note %d", id)), nil
}

func (s *Server) deleteNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, ok := req.GetArguments()["ids"].([]any)
	if !ok {
		return mcp.NewToolResultError("ids must be an array of integers"), nil
	}
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, err := toInt64(v)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid id: %v", v)), nil
		}
		ids = append(ids, id)
	}

	st := status.Last(s.svc.Remove(ctx, ids))
	if st.State == status.Failed {
		return mcp.NewToolResultError(st.Message), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted up to %d notes", len(ids))), nil
}

func (s *Server) readNotesResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	st := status.Last(s.svc.List(ctx))
	if st.State == status.Failed {
		return nil, st.Err
	}
	out, err := json.Marshal(st.Value)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      notesResourceURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}

// toInt64 accepts the numeric shapes JSON decoding and callers produce.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("not an integer: %v", n)
		}
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		return n.Int64()
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
