package updater

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"phishguard/internal/repository"
)

func setupTestDB(t *testing.T) *repository.ListDB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test_lists.db")

	db := &repository.ListDB{}
	if err := db.InitDB(dbPath); err != nil {
		t.Fatalf("Failed to init DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRun_ETagCycle(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == "v1.0" {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", "v1.0")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("id,url\n100,http://virus.test/a\n101,trojan.test"))
	}))
	defer mockServer.Close()

	db := setupTestDB(t)

	sources := []repository.FeedSource{
		{
			Name:         "test_feed",
			URL:          mockServer.URL,
			Format:       "csv",
			TargetColumn: "url",
			Risk:         70,
		},
	}

	// 1. Fresh download
	Run(context.Background(), db, sources)

	list, err := db.GetList(repository.ListBlacklist)
	if err != nil {
		t.Fatalf("GetList: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("Pass 1: expected 2 domains, got %d", len(list))
	}

	if tag := db.GetETag("test_feed_" + mockServer.URL); tag != "v1.0" {
		t.Errorf("Pass 1: ETag = %q, want v1.0", tag)
	}

	// 2. Second run hits the 304 path and must not touch the store
	Run(context.Background(), db, sources)

	listAfter, _ := db.GetList(repository.ListBlacklist)
	if len(listAfter) != 2 {
		t.Errorf("Pass 2: store changed after 304, got %d domains", len(listAfter))
	}
}

func TestRun_MultiSource(t *testing.T) {
	srv1 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0.0.0.0 host1.com"))
	}))
	defer srv1.Close()

	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("host2.com"))
	}))
	defer srv2.Close()

	db := setupTestDB(t)

	sources := []repository.FeedSource{
		{Name: "source_a", URL: srv1.URL, Format: "hosts"},
		{Name: "source_b", URL: srv2.URL, Format: "text"},
	}

	Run(context.Background(), db, sources)

	// Sweep is per-source, so the feeds must not prune each other.
	list, _ := db.GetList(repository.ListBlacklist)
	if len(list) != 2 {
		t.Errorf("Expected 2 total domains from mixed sources, got %d", len(list))
	}
}

func TestRun_FailingFeedSkipped(t *testing.T) {
	srvBad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srvBad.Close()

	srvGood := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("live.example.com"))
	}))
	defer srvGood.Close()

	db := setupTestDB(t)

	Run(context.Background(), db, []repository.FeedSource{
		{Name: "broken", URL: srvBad.URL, Format: "text"},
		{Name: "healthy", URL: srvGood.URL, Format: "text"},
	})

	list, _ := db.GetList(repository.ListBlacklist)
	if len(list) != 1 || list[0] != "live.example.com" {
		t.Errorf("healthy feed should still sync, got %v", list)
	}
}
