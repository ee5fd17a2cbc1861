// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the arbor outline to LLM clients over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/arbor/internal/noteservice"
)

const taskSyntaxURI = "arbor://task-syntax"

// Server wraps the MCP server with arbor tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all arbor tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"arbor",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_tree",
		mcp.WithDescription("Show the outline as indented text, one note per line with its id in brackets. "+
			"Optionally re-focus on a note first; deep levels are summarized by a placeholder line."),
		mcp.WithString("focus", mcp.Description("Note id to focus on; \"root\" for the whole outline")),
	), s.getTree)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read one note with its task fields, checksum and child count."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a plain note under a parent."),
		mcp.WithString("parent_id", mcp.Description("Parent note id (default: the focused note)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note text")),
		mcp.WithNumber("position", mcp.Description("Index among the parent's children (default: append)")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace the content of a note. Task notes are read with the task "+
			"mini-language (see get_task_syntax)."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New content")),
		mcp.WithString("if_match", mcp.Description("Checksum from read_note; the update fails if the note changed since")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Append an active task. The text follows the task mini-language, "+
			"e.g. \"renew passport due in 3 weeks p1\". Read get_task_syntax first."),
		mcp.WithString("parent_id", mcp.Description("Parent note id (default: the focused note)")),
		mcp.WithString("text", mcp.Required(), mcp.Description("Task text")),
	), s.addTask)

	s.mcp.AddTool(mcp.NewTool("cycle_task",
		mcp.WithDescription("Advance a note's task status: none, active, complete, cancelled, none."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.cycleTask)

	s.mcp.AddTool(mcp.NewTool("move_note",
		mcp.WithDescription("Move a note (with its subtree) under a new parent. A note cannot move into its own subtree."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("parent_id", mcp.Required(), mcp.Description("New parent id")),
		mcp.WithNumber("position", mcp.Description("Final index among the new siblings (default: first)")),
	), s.moveNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search note content, most recently modified first."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("get_breadcrumbs",
		mcp.WithDescription("List the ancestors of a note from the root down to the note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.getBreadcrumbs)

	s.mcp.AddTool(mcp.NewTool("import_outline",
		mcp.WithDescription("Create notes from indented outline text (or a YAML snapshot) under a parent."),
		mcp.WithString("parent_id", mcp.Description("Parent note id (default: the focused note)")),
		mcp.WithString("data", mcp.Required(), mcp.Description("Outline text, 4 spaces per level")),
		mcp.WithString("format", mcp.Description("text (default) or yaml"), mcp.Enum("text", "yaml")),
	), s.importOutline)

	s.mcp.AddTool(mcp.NewTool("export_outline",
		mcp.WithDescription("Export a note and its subtree as outline text or a YAML snapshot."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Subtree root id")),
		mcp.WithString("format", mcp.Description("text (default) or yaml"), mcp.Enum("text", "yaml")),
	), s.exportOutline)

	s.mcp.AddTool(mcp.NewTool("get_task_syntax",
		mcp.WithDescription("Returns the task mini-language reference: status glyphs, priority tags and date phrases."),
	), s.getTaskSyntax)

	s.mcp.AddResource(
		mcp.NewResource(taskSyntaxURI, "Task Syntax",
			mcp.WithResourceDescription("Task mini-language and outline text format."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTaskSyntaxResource,
	)

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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if focus := req.GetString("focus", ""); focus != "" {
		if focus == "root" {
			focus = ""
		}
		if _, err := s.svc.Focus(ctx, focus); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	v, err := s.svc.View(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var b strings.Builder
	for _, row := range v.Rows {
		b.WriteString(strings.Repeat("    ", row.Depth))
		b.WriteString(row.Label())
		if !row.Placeholder {
			fmt.Fprintf(&b, " [%s]", row.ID)
		}
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.GetNote(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return jsonResult(n)
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.CreateNote(ctx, req.GetString("parent_id", ""), content, req.GetInt("position", -1))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(n)
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, warnings, err := s.svc.UpdateNote(ctx, id, content, req.GetString("if_match", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"note": n, "warnings": warnings})
}

func (s *Server) addTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, warnings, err := s.svc.AddTask(ctx, req.GetString("parent_id", ""), text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"note": n, "warnings": warnings})
}

func (s *Server) cycleTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	st, err := s.svc.CycleTask(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if st == "" {
		return mcp.NewToolResultText("status: none"), nil
	}
	return mcp.NewToolResultText("status: " + string(st)), nil
}

func (s *Server) moveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	parent, err := req.RequireString("parent_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ok, err := s.svc.Move(ctx, id, parent, req.GetInt("position", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("move rejected: %s cannot move under %s", id, parent)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("moved: %s", id)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	return jsonResult(results)
}

func (s *Server) getBreadcrumbs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	trail, err := s.svc.Trail(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	labels := make([]string, len(trail))
	for i, c := range trail {
		labels[i] = c.Label
	}
	return mcp.NewToolResultText(strings.Join(labels, " > ")), nil
}

func (s *Server) importOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format := req.GetString("format", noteservice.FormatText)
	ids, err := s.svc.ImportOutline(ctx, req.GetString("parent_id", ""), []byte(data), format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"created": ids})
}

func (s *Server) exportOutline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.svc.ExportOutline(ctx, id, req.GetString("format", noteservice.FormatText))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getTaskSyntax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TaskSyntaxContract), nil
}

func (s *Server) readTaskSyntaxResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      taskSyntaxURI,
			MIMEType: "text/markdown",
			Text:     TaskSyntaxContract,
		},
	}, nil
}
