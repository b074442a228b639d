package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/laguz/internal/ingest"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/retrieval"
	"github.com/starford/laguz/internal/testutil"
	"github.com/starford/laguz/internal/vector"
)

func testServer(t *testing.T, files map[string]string) *Server {
	t.Helper()
	root, _ := testutil.TestVault(t, files)
	fake := &testutil.FakeEmbedder{Dim: 384}
	factory := func(ctx context.Context, model string) (embedding.Embedder, error) {
		return fake, nil
	}
	live := &vector.Live{}
	r := &ingest.Runner{
		Store:       testutil.TestDB(t),
		Live:        live,
		NewEmbedder: factory,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		DBPath:      t.Name(),
	}
	if _, err := r.Run(context.Background(), ingest.Options{Root: root, Model: "all-minilm"}); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	return New(&retrieval.Service{Store: r.Store, Live: live, NewEmbedder: factory})
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we invoke
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error
	switch name {
	case "semantic_search":
		result, err = srv.semanticSearch(ctx, req)
	case "get_backlinks":
		result, err = srv.getBacklinks(ctx, req)
	case "get_connections":
		result, err = srv.getConnections(ctx, req)
	case "find_hidden_gems":
		result, err = srv.findHiddenGems(ctx, req)
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "get_graph":
		result, err = srv.getGraph(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSemanticSearchTool(t *testing.T) {
	srv := testServer(t, map[string]string{
		"a.md": "Falcons hunt at dawn.\n",
		"b.md": "Quarterly budget review.\n",
	})
	res := callTool(t, srv, "semantic_search", map[string]interface{}{
		"query": "falcons",
		"limit": 1,
	})
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(res))
	}
	var hits []models.SearchHit
	if err := json.Unmarshal([]byte(resultText(res)), &hits); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %+v", hits)
	}
}

func TestSemanticSearchToolRequiresQuery(t *testing.T) {
	srv := testServer(t, map[string]string{"a.md": "Body.\n"})
	res := callTool(t, srv, "semantic_search", map[string]interface{}{})
	if !res.IsError {
		t.Fatal("expected error result for missing query")
	}
}

func TestGetBacklinksTool(t *testing.T) {
	srv := testServer(t, map[string]string{
		"a.md": "See [[B]].\n",
		"b.md": "Linked.\n",
	})
	res := callTool(t, srv, "get_backlinks", map[string]interface{}{"slug": "b"})
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(res))
	}
	var links []models.Link
	if err := json.Unmarshal([]byte(resultText(res)), &links); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(links) != 1 || links[0].SourceSlug != "a" {
		t.Fatalf("links = %+v", links)
	}
}

func TestGetConnectionsTool(t *testing.T) {
	srv := testServer(t, map[string]string{
		"a.md": "See [[B]].\n",
		"b.md": "See [[C]].\n",
		"c.md": "End.\n",
	})
	res := callTool(t, srv, "get_connections", map[string]interface{}{"slug": "a", "hops": 2})
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(res))
	}
	var conns []models.Connection
	if err := json.Unmarshal([]byte(resultText(res)), &conns); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(conns) != 2 {
		t.Fatalf("conns = %+v", conns)
	}
	for _, c := range conns {
		if c.Slug == "a" {
			t.Fatal("seed included in connections")
		}
	}
}

func TestFindHiddenGemsTool(t *testing.T) {
	srv := testServer(t, map[string]string{
		"seed.md": "Links [[Near]].\n",
		"near.md": "Neighbor body.\n",
		"far.md":  "Far body.\n",
	})
	res := callTool(t, srv, "find_hidden_gems", map[string]interface{}{
		"query": "body",
		"seed":  "seed",
	})
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(res))
	}
	var hits []models.SearchHit
	if err := json.Unmarshal([]byte(resultText(res)), &hits); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, h := range hits {
		if h.Slug == "seed" || h.Slug == "near" {
			t.Fatalf("excluded note surfaced: %+v", h)
		}
	}
}

func TestListNotesTool(t *testing.T) {
	srv := testServer(t, map[string]string{
		"a.md": "---\ntags: [zettel]\n---\nBody.\n",
		"b.md": "Body.\n",
	})
	res := callTool(t, srv, "list_notes", map[string]interface{}{})
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(res))
	}
	var items []models.NoteListItem
	if err := json.Unmarshal([]byte(resultText(res)), &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %+v", items)
	}

	res = callTool(t, srv, "list_notes", map[string]interface{}{"tag": "zettel"})
	_ = json.Unmarshal([]byte(resultText(res)), &items)
	if len(items) != 1 || items[0].Slug != "a" {
		t.Fatalf("tagged items = %+v", items)
	}
}

func TestGetGraphTool(t *testing.T) {
	srv := testServer(t, map[string]string{
		"a.md": "See [[Ghost]].\n",
	})
	res := callTool(t, srv, "get_graph", map[string]interface{}{})
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(res))
	}
	text := resultText(res)
	if !strings.Contains(text, "ghost") {
		t.Fatalf("graph missing dangling node: %s", text)
	}
}

func TestToolsReportUnavailableStore(t *testing.T) {
	srv := New(&retrieval.Service{Store: testutil.TestDB(t), Live: &vector.Live{}})
	res := callTool(t, srv, "get_backlinks", map[string]interface{}{"slug": "a"})
	if !res.IsError {
		t.Fatal("expected error result for unbuilt store")
	}
}
