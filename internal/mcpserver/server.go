// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes catalog lookups for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalogdb"
)

// Server wraps the MCP server with catalog tools.
type Server struct {
	mcp  *server.MCPServer
	snap catalogdb.Snapshot
}

// New creates a new MCP server with all catalog tools registered.
func New(snap catalogdb.Snapshot, version string) *Server {
	s := &Server{snap: snap}

	s.mcp = server.NewMCPServer(
		"folio",
		version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("lookup_document",
		mcp.WithDescription("Find a catalogued document by its MD5 content hash or by one of its alternate ids (e.g. isbn:...)."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Content hash or alternate id")),
	), s.lookupDocument)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag in the catalog with the number of documents carrying it. "+
			"Tags are hierarchical, with levels separated by colons (project:alpha:draft)."),
	), s.listTags)

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

func (s *Server) lookupDocument(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	row, err := s.snap.Lookup(id)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no document with id %s", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(row, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listTags(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	counts, err := s.snap.TagCounts()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(counts) == 0 {
		return mcp.NewToolResultText("no tags found"), nil
	}
	out, _ := json.MarshalIndent(counts, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
