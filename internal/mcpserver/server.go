// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Hackshelf catalog for LLM integration via stdio
// transport. All tools are read-only views over the catalog; edits stay
// with the GUI.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mjott/hackshelf/internal/hackservice"
	"github.com/mjott/hackshelf/internal/query"
)

// Server wraps the MCP server with Hackshelf tools.
type Server struct {
	mcp *server.MCPServer
	svc *hackservice.Service
}

// New creates a new MCP server with all catalog tools registered.
func New(svc *hackservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Hackshelf",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_hacks",
		mcp.WithDescription("List catalog records, optionally filtered by title substring, "+
			"category membership, or tier. Obsolete versions are excluded."),
		mcp.WithString("title", mcp.Description("Case-insensitive title substring")),
		mcp.WithString("category", mcp.Description("Category name; matches any of a record's categories")),
		mcp.WithString("tier", mcp.Description("Exact tier name, e.g. Skilled")),
	), s.listHacks)

	s.mcp.AddTool(mcp.NewTool("get_hack",
		mcp.WithDescription("Read the full catalog record for one hack, including artifact paths and user annotations."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	), s.getHack)

	s.mcp.AddTool(mcp.NewTool("catalog_stats",
		mcp.WithDescription("Summary counts: current records, obsolete history, completions, records per tier."),
	), s.catalogStats)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List the distinct categories across current records."),
	), s.listCategories)

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

func (s *Server) listHacks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := query.Filter{Obsolete: query.No}
	if v, err := req.RequireString("title"); err == nil {
		f.Title = v
	}
	if v, err := req.RequireString("category"); err == nil {
		f.Category = v
	}
	if v, err := req.RequireString("tier"); err == nil {
		f.Tier = v
	}

	recs := s.svc.Select(ctx, f, "title", false)
	var lines []string
	for _, rec := range recs {
		lines = append(lines, fmt.Sprintf("%s\t%s\t[%s]\t%s",
			rec.ID, rec.Title, strings.Join(rec.Categories, ", "), rec.Tier))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no matching hacks"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getHack(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) catalogStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.svc.Stats(ctx)
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listCategories(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cats := s.svc.Categories(ctx)
	if len(cats) == 0 {
		return mcp.NewToolResultText("catalog is empty"), nil
	}
	return mcp.NewToolResultText(strings.Join(cats, "\n")), nil
}
