package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/embedding"

	"github.com/starford/laguz/internal/ingest"
	"github.com/starford/laguz/internal/retrieval"
	"github.com/starford/laguz/internal/testutil"
	"github.com/starford/laguz/internal/vector"
)

// testEnv ingests the given vault files and returns a router over the
// resulting service. An empty token disables auth.
func testEnv(t *testing.T, files map[string]string, token string) http.Handler {
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
	svc := &retrieval.Service{Store: r.Store, Live: live, NewEmbedder: factory}
	return NewRouter(svc, token)
}

func get(t *testing.T, router http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListNotes(t *testing.T) {
	router := testEnv(t, map[string]string{
		"a.md": "---\ntags: [zettel]\n---\nBody a.\n",
		"b.md": "Body b.\n",
	}, "")

	w := get(t, router, "/notes", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 || len(resp.Notes) != 2 {
		t.Fatalf("resp = %+v", resp)
	}

	w = get(t, router, "/notes?tag=zettel", "")
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Notes[0].Slug != "a" {
		t.Fatalf("tagged resp = %+v", resp)
	}
}

func TestSearch(t *testing.T) {
	router := testEnv(t, map[string]string{
		"a.md": "The heron waits by the river.\n",
		"b.md": "Tax season paperwork.\n",
	}, "")

	w := get(t, router, "/search?q=heron&limit=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Results) != 1 {
		t.Fatalf("results = %+v", resp.Results)
	}
	if resp.Results[0].Slug == "" || resp.Results[0].Content == "" {
		t.Fatalf("hit missing context: %+v", resp.Results[0])
	}

	if w := get(t, router, "/search", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("missing q status = %d", w.Code)
	}
}

func TestBacklinksRoute(t *testing.T) {
	router := testEnv(t, map[string]string{
		"a.md":         "See [[topics/B Note|that note]].\n",
		"topics/b.md":  "I am linked.\n",
		"unrelated.md": "Nothing here.\n",
	}, "")

	w := get(t, router, "/backlinks/topics/b-note", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp BacklinksResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Backlinks) != 1 || resp.Backlinks[0].Source != "a" || resp.Backlinks[0].Text != "that note" {
		t.Fatalf("resp = %+v", resp)
	}

	// Unknown slugs are empty results, not errors.
	w = get(t, router, "/backlinks/never-written", "")
	if w.Code != http.StatusOK {
		t.Fatalf("unknown slug status = %d", w.Code)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Backlinks) != 0 {
		t.Fatalf("unknown slug resp = %+v", resp)
	}
}

func TestConnectionsRoute(t *testing.T) {
	router := testEnv(t, map[string]string{
		"a.md": "See [[B]].\n",
		"b.md": "See [[C]].\n",
		"c.md": "End.\n",
	}, "")

	w := get(t, router, "/connections/a?hops=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp ConnectionsResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Hops != 2 || len(resp.Connections) != 2 {
		t.Fatalf("resp = %+v", resp)
	}

	if w := get(t, router, "/connections/a?hops=zero", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("bad hops status = %d", w.Code)
	}
}

func TestHiddenRoute(t *testing.T) {
	router := testEnv(t, map[string]string{
		"seed.md": "Links to [[Near]].\n",
		"near.md": "Neighbor text.\n",
		"far.md":  "Distant text.\n",
	}, "")

	w := get(t, router, "/hidden?q=text&seed=seed", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	for _, hit := range resp.Results {
		if hit.Slug == "seed" || hit.Slug == "near" {
			t.Fatalf("excluded note surfaced: %+v", hit)
		}
	}

	if w := get(t, router, "/hidden?q=text", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("missing seed status = %d", w.Code)
	}
}

func TestGraphRoute(t *testing.T) {
	router := testEnv(t, map[string]string{
		"a.md": "See [[Ghost]].\n",
	}, "")

	w := get(t, router, "/graph", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp GraphResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Nodes) != 2 || len(resp.Links) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestUnavailableStore(t *testing.T) {
	svc := &retrieval.Service{Store: testutil.TestDB(t), Live: &vector.Live{}}
	router := NewRouter(svc, "")

	for _, path := range []string{"/notes", "/search?q=x", "/graph", "/backlinks/a", "/connections/a"} {
		if w := get(t, router, path, ""); w.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s status = %d, want 503", path, w.Code)
		}
	}
}

func TestAuth(t *testing.T) {
	router := testEnv(t, map[string]string{"a.md": "Body.\n"}, "secret")

	if w := get(t, router, "/notes", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", w.Code)
	}
	if w := get(t, router, "/notes", "wrong"); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d", w.Code)
	}
	if w := get(t, router, "/notes", "secret"); w.Code != http.StatusOK {
		t.Fatalf("valid token status = %d", w.Code)
	}
}
