package app_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/derickschaefer/jstat/internal/app"
	"github.com/derickschaefer/jstat/internal/config"
	"github.com/derickschaefer/jstat/internal/jsonstat"
)

const collectionDoc = `{"version":"2.0","class":"collection","link":{"item":[{"href":"a.json"}]}}`

// ─── Helpers ──────────────────────────────────────────────────────────────────

// testDeps returns Deps pointed at a counting test server and a temp store.
func testDeps(t *testing.T, body string) (*app.Deps, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		BaseURL:     srv.URL + "/samples/",
		UserAgent:   "jstat-test",
		Timeout:     5 * time.Second,
		Rate:        100,
		Concurrency: 2,
		DBPath:      filepath.Join(t.TempDir(), "jstat.db"),
	}
	deps, err := app.New(cfg)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(func() { _ = deps.Close() })
	return deps, &hits
}

// ─── Load ─────────────────────────────────────────────────────────────────────

func TestLoadCachesRemoteDocuments(t *testing.T) {
	deps, hits := testDeps(t, collectionDoc)
	ctx := context.Background()

	first, err := deps.Load(ctx, "index.json")
	if err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if first.CacheHit {
		t.Error("first load should not be a cache hit")
	}

	second, err := deps.Load(ctx, "index.json")
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if !second.CacheHit {
		t.Error("second load should be served from the store")
	}
	if string(second.Body) != collectionDoc {
		t.Errorf("cached body mismatch: %s", second.Body)
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 request, got %d", hits.Load())
	}

	doc, found, err := deps.Store.GetDocument(first.Source.Location)
	if err != nil || !found {
		t.Fatalf("document should be stored under its URL: found=%v err=%v", found, err)
	}
	if doc.Class != "collection" {
		t.Errorf("stored class: expected collection, got %q", doc.Class)
	}
}

func TestLoadRefreshRefetches(t *testing.T) {
	deps, hits := testDeps(t, collectionDoc)
	ctx := context.Background()
	_, _ = deps.Load(ctx, "index.json")

	deps.Config.Refresh = true
	got, err := deps.Load(ctx, "index.json")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.CacheHit {
		t.Error("--refresh must bypass the cache")
	}
	if hits.Load() != 2 {
		t.Errorf("expected 2 requests, got %d", hits.Load())
	}
}

func TestLoadNoCacheStillWrites(t *testing.T) {
	deps, hits := testDeps(t, collectionDoc)
	deps.Config.NoCache = true
	ctx := context.Background()

	_, _ = deps.Load(ctx, "index.json")
	_, _ = deps.Load(ctx, "index.json")
	if hits.Load() != 2 {
		t.Errorf("--no-cache should fetch every time, got %d requests", hits.Load())
	}

	deps.Config.NoCache = false
	got, _ := deps.Load(ctx, "index.json")
	if got == nil || !got.CacheHit {
		t.Error("documents fetched with --no-cache should still be written to the store")
	}
}

func TestLoadLocalFilesAreNotCached(t *testing.T) {
	deps, _ := testDeps(t, collectionDoc)
	path := filepath.Join(t.TempDir(), "local.json")
	if err := os.WriteFile(path, []byte(collectionDoc), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := deps.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.CacheHit {
		t.Error("local file should not be a cache hit")
	}
	if deps.Store != nil {
		docs, _ := deps.Store.ListDocuments(false)
		if len(docs) != 0 {
			t.Errorf("local files should not be stored, got %d entries", len(docs))
		}
	}
}

func TestLoadWarnsWhenStoreUnavailable(t *testing.T) {
	deps, _ := testDeps(t, collectionDoc)
	deps.Config.DBPath = ""

	got, err := deps.Load(context.Background(), "index.json")
	if err != nil {
		t.Fatalf("Load should succeed without a store: %v", err)
	}
	if len(got.Warnings) == 0 {
		t.Error("expected a cache warning")
	}
}

func TestRequireStoreIsIdempotent(t *testing.T) {
	deps, _ := testDeps(t, collectionDoc)
	if err := deps.RequireStore(); err != nil {
		t.Fatalf("RequireStore: %v", err)
	}
	first := deps.Store
	if err := deps.RequireStore(); err != nil {
		t.Fatalf("second RequireStore: %v", err)
	}
	if deps.Store != first {
		t.Error("RequireStore should reuse the open store")
	}
	if err := deps.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := deps.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

// ─── Narrow ───────────────────────────────────────────────────────────────────

func TestNarrowPicksClass(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"dataset", `{"version":"2.0","class":"dataset","id":["a"],"size":[1],"value":[1],"dimension":{}}`, "*jsonstat.Dataset"},
		{"collection", collectionDoc, "*jsonstat.Collection"},
		{"dimension", `{"version":"2.0","class":"dimension","category":{"index":["x"]}}`, "*jsonstat.Dimension"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := app.Narrow([]byte(tt.doc))
			if err != nil {
				t.Fatalf("Narrow: %v", err)
			}
			var got string
			switch doc.(type) {
			case *jsonstat.Dataset:
				got = "*jsonstat.Dataset"
			case *jsonstat.Collection:
				got = "*jsonstat.Collection"
			case *jsonstat.Dimension:
				got = "*jsonstat.Dimension"
			}
			if got != tt.want {
				t.Errorf("expected %s, got %T", tt.want, doc)
			}
		})
	}
}

func TestNarrowReportsDatasetFailure(t *testing.T) {
	_, err := app.Narrow([]byte(`{"version":"2.0","class":"dataset","id":["a"],"size":[2],"value":[1],"dimension":{}}`))
	if !errors.Is(err, jsonstat.ErrInvariant) {
		t.Errorf("expected invariant violation, got %v", err)
	}
}

func TestNarrowDimensionWithoutCategory(t *testing.T) {
	doc, err := app.Narrow([]byte(`{"version":"2.0","class":"dimension"}`))
	if err == nil {
		t.Fatalf("expected error, got %T", doc)
	}
	if doc != nil {
		t.Errorf("failed narrowing should return a nil document, got %#v", doc)
	}
}

func TestNarrowDecodeError(t *testing.T) {
	_, err := app.Narrow([]byte(`{"version":"2.0"`))
	if !errors.Is(err, jsonstat.ErrSyntax) {
		t.Errorf("expected syntax error, got %v", err)
	}
}
