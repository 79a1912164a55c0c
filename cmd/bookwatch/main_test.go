package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type fakeAPI struct {
	mu       sync.Mutex
	queued   int
	attempts int
	server   *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/monitored/author-1/books", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"books":[
			{"provider":"hardcover","provider_book_id":"1","title":"Dune","authors":"Frank Herbert"},
			{"provider":"hardcover","provider_book_id":"2","title":"Children of Dune","authors":"Frank Herbert"}
		],"last_checked_at":"2026-01-01T00:00:00Z"}`))
	})
	mux.HandleFunc("POST /api/monitored/author-1/files/scan", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"files":[{"provider":"hardcover","provider_book_id":"1","file_type":"EPUB"}]}`))
	})
	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"downloading":{"dl-9":{"title":"Children of Dune","author":"Frank Herbert","progress":40}}}`))
	})
	mux.HandleFunc("GET /api/releases", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("book_id") != "2" {
			t.Errorf("unexpected release search for %q", r.URL.Query().Get("book_id"))
		}
		_, _ = w.Write([]byte(`{"releases":[{"id":"r1","title":"Children of Dune.epub","extra":{"match_score":90}}]}`))
	})
	mux.HandleFunc("POST /api/releases/download", func(w http.ResponseWriter, _ *http.Request) {
		api.mu.Lock()
		api.queued++
		api.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /api/monitored/author-1/attempts", func(w http.ResponseWriter, _ *http.Request) {
		api.mu.Lock()
		api.attempts++
		api.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	api.server = httptest.NewServer(mux)
	t.Cleanup(api.server.Close)
	return api
}

func writeTestConfig(t *testing.T, baseURL string) string {
	t.Helper()
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("BOOKWATCH_API_TOKEN", "")
	path := filepath.Join(base, "config.toml")
	content := fmt.Sprintf("[api]\nbase_url = %q\ntoken = \"test\"\n\n[paths]\nstate_dir = %q\n",
		baseURL, filepath.Join(base, "state"))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--env-file", ""}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitShowAndValidate(t *testing.T) {
	api := newFakeAPI(t)
	configPath := writeTestConfig(t, api.server.URL)

	out, _, err := runCLI(t, configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	out, _, err = runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, api.server.URL)
	requireContains(t, out, "min_match_score")

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
}

func TestKeysCommand(t *testing.T) {
	out, _, err := runCLI(t, "", "keys", "--title", "Dune!", "--author", "Frank Herbert", "--provider", "hardcover", "--provider-id", "42", "--format", "json")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	var views []keyView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode keys output: %v\n%s", err, out)
	}
	if len(views) == 0 || views[0].Key != "p:hardcover:42" {
		t.Fatalf("expected provider key first, got %+v", views)
	}
	requireContains(t, out, "ta:dune|frank herbert")

	if _, _, err := runCLI(t, "", "keys"); err == nil {
		t.Fatal("expected error for unidentifiable book")
	}
}

func TestSyncBooksAcquireHistory(t *testing.T) {
	api := newFakeAPI(t)
	configPath := writeTestConfig(t, api.server.URL)

	out, _, err := runCLI(t, configPath, "sync", "author-1")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	requireContains(t, out, "Cached 2 monitored books")
	requireContains(t, out, "Cached 1 matched files")

	out, _, err = runCLI(t, configPath, "books", "author-1", "--format", "json")
	if err != nil {
		t.Fatalf("books: %v", err)
	}
	var views []bookView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode books output: %v\n%s", err, out)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 books, got %+v", views)
	}
	if !views[0].HasEbook || views[1].HasEbook {
		t.Fatalf("unexpected availability %+v", views)
	}
	if views[1].Download != "downloading" || views[1].Progress != 40 {
		t.Fatalf("expected second book downloading at 40%%, got %+v", views[1])
	}

	out, _, err = runCLI(t, configPath, "books", "author-1", "--offline", "--missing", "ebook")
	if err != nil {
		t.Fatalf("books --missing: %v", err)
	}
	requireContains(t, out, "Children of Dune")
	if strings.Contains(out, "| Dune ") {
		t.Fatalf("expected owned book filtered out:\n%s", out)
	}

	out, stderr, err := runCLI(t, configPath, "acquire", "author-1")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	requireContains(t, out, "1/1 queued · 0 skipped · 0 failed")
	requireContains(t, stderr, "Processing book 1/1")
	api.mu.Lock()
	queued, attempts := api.queued, api.attempts
	api.mu.Unlock()
	if queued != 1 || attempts != 0 {
		t.Fatalf("expected one queue call and no remote attempt, got queued=%d attempts=%d", queued, attempts)
	}

	out, _, err = runCLI(t, configPath, "history", "author-1", "--format", "yaml")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "status: queued")
	requireContains(t, out, "book_id: \"2\"")
}

func TestStatusCommandReportsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()
	configPath := writeTestConfig(t, server.URL)

	out, _, err := runCLI(t, configPath, "status")
	if err == nil {
		t.Fatal("expected status to fail when the API rejects the token")
	}
	requireContains(t, out, "auth failed")
	requireContains(t, out, "read/write ok")
}
