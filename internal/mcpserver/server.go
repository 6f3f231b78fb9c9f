// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes sync tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/granola-sync/internal/apperr"
	"github.com/starford/granola-sync/internal/noteservice"
)

// NoteFormatURI identifies the note format resource.
const NoteFormatURI = "granola://note-format"

// Server wraps the MCP server with the sync tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"granola-sync",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("sync_now",
		mcp.WithDescription("Fetch the most recent Granola documents and write them as Markdown notes. "+
			"Returns how many notes were written and their titles."),
	), s.syncNow)

	s.mcp.AddTool(mcp.NewTool("list_synced_documents",
		mcp.WithDescription("List documents that have been synced into the vault, most recent first. "+
			"With a query, runs a full-text search over the synced notes instead."),
		mcp.WithString("query", mcp.Description("Optional search query")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.listSyncedDocuments)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a synced Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path to the note (e.g. Granola/Standup.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("preview_document",
		mcp.WithDescription("Render a raw Granola document with the current settings without writing it. "+
			"See the "+NoteFormatURI+" resource for the output format."),
		mcp.WithString("document", mcp.Required(), mcp.Description("The document as a JSON object")),
	), s.previewDocument)

	s.mcp.AddTool(mcp.NewTool("get_settings",
		mcp.WithDescription("Returns the current sync settings."),
	), s.getSettings)

	s.mcp.AddResource(
		mcp.NewResource(NoteFormatURI, "Synced Note Format",
			mcp.WithResourceDescription("Layout of the Markdown notes written by the sync."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) syncNow(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.SyncNow(ctx)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNoToken):
			return mcp.NewToolResultError("no Granola access token found; sign in to the Granola app first"), nil
		case errors.Is(err, apperr.ErrFetch):
			return mcp.NewToolResultError(fmt.Sprintf("failed to fetch documents: %v", err)), nil
		default:
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	return jsonResult(res), nil
}

func (s *Server) listSyncedDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	if query := req.GetString("query", ""); query != "" {
		results, err := s.svc.Search(ctx, query, limit)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(results), nil
	}
	items, _, err := s.svc.ListDocuments(ctx, limit, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no documents synced yet"), nil
	}
	return jsonResult(items), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.svc.GetNote(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(note), nil
}

func (s *Server) previewDocument(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("document")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.Preview([]byte(raw))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("path: %s\n\n%s", p.Path, p.Content)), nil
}

func (s *Server) getSettings(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Settings()), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      NoteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
