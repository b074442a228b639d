// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Laguz retrieval tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/laguz/internal/retrieval"
)

// Server wraps the MCP server with Laguz tools.
type Server struct {
	mcp *server.MCPServer
	svc *retrieval.Service
}

// New creates a new MCP server with all Laguz tools registered.
func New(svc *retrieval.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Laguz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("semantic_search",
		mcp.WithDescription("Search note chunks by meaning, not keywords. Returns the most similar chunks with their note context and similarity scores."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural-language query text")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 10)")),
	), s.semanticSearch)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the specified note."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Slug of the note to find backlinks for (e.g. topics/my-note)")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_connections",
		mcp.WithDescription("Walk the link graph outward from a note and return every note reachable within N hops, annotated with its distance. Links are treated as undirected."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Slug of the starting note")),
		mcp.WithNumber("hops", mcp.Description("Max hop distance (default 1)")),
	), s.getConnections)

	s.mcp.AddTool(mcp.NewTool("find_hidden_gems",
		mcp.WithDescription("Find notes semantically relevant to a query that are NOT already linked to a seed note. Chunks from the seed and its direct neighbors are excluded before ranking."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural-language query text")),
		mcp.WithString("seed", mcp.Required(), mcp.Description("Slug of the seed note whose neighborhood is excluded")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 10)")),
	), s.findHiddenGems)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes with their titles, tags, and source provenance."),
		mcp.WithString("tag", mcp.Description("Optional tag to filter by (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Return the full link graph: every note plus every link, including targets that have no note yet."),
	), s.getGraph)

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

func (s *Server) semanticSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", retrieval.DefaultLimit)

	hits, err := s.svc.SemanticSearch(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	links, err := s.svc.Backlinks(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(links, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hops := req.GetInt("hops", 1)

	conns, err := s.svc.Connections(ctx, slug, hops)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(conns, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) findHiddenGems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	seed, err := req.RequireString("seed")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", retrieval.DefaultLimit)

	hits, err := s.svc.HiddenGems(ctx, query, seed, limit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := req.GetString("tag", "")

	items, err := s.svc.ListNotes(ctx, tag)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodes, edges, err := s.svc.Graph(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"nodes": nodes,
		"edges": edges,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}
