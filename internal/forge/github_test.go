package forge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *GitHubClient {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := NewGitHubClient("", WithBaseURL(ts.URL))
	if err != nil {
		t.Fatalf("NewGitHubClient() error = %v", err)
	}
	return client
}

func TestGetRepo(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/widget" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{
  "full_name": "octo/widget",
  "description": "widgets as a service",
  "default_branch": "main",
  "language": "Go",
  "topics": ["widgets", "api"]
}`)
	}))

	repo, err := client.GetRepo(context.Background(), "octo", "widget")
	if err != nil {
		t.Fatalf("GetRepo() error = %v", err)
	}
	if repo.DefaultBranch != "main" || repo.Language != "Go" {
		t.Errorf("GetRepo() = %+v", repo)
	}
	if len(repo.Topics) != 2 {
		t.Errorf("GetRepo() topics = %v, want 2 entries", repo.Topics)
	}
}

func TestListTree(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/widget/git/trees/headsha" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("recursive") == "" {
			t.Error("expected recursive tree request")
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{
  "sha": "headsha",
  "tree": [
    {"path": "go.mod", "type": "blob", "size": 30, "sha": "s1"},
    {"path": "internal", "type": "tree", "sha": "s2"},
    {"path": "internal/app.go", "type": "blob", "size": 200, "sha": "s3"}
  ]
}`)
	}))

	entries, err := client.ListTree(context.Background(), "octo", "widget", "headsha")
	if err != nil {
		t.Fatalf("ListTree() error = %v", err)
	}

	// Directory entries are dropped
	if len(entries) != 2 {
		t.Fatalf("ListTree() returned %d entries, want 2", len(entries))
	}
	if entries[0].Path != "go.mod" || entries[1].Path != "internal/app.go" {
		t.Errorf("ListTree() = %+v", entries)
	}
	if entries[1].Size != 200 {
		t.Errorf("entry size = %d, want 200", entries[1].Size)
	}
}

func TestGetFile(t *testing.T) {
	content := "package main\n"
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/octo/widget/contents/main.go" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("ref") != "headsha" {
			t.Errorf("ref = %q, want headsha", r.URL.Query().Get("ref"))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"type":     "file",
			"encoding": "base64",
			"path":     "main.go",
			"sha":      "blobsha",
			"content":  base64.StdEncoding.EncodeToString([]byte(content)),
		})
	}))

	got, err := client.GetFile(context.Background(), "octo", "widget", "main.go", "headsha")
	if err != nil {
		t.Fatalf("GetFile() error = %v", err)
	}
	if got != content {
		t.Errorf("GetFile() = %q, want %q", got, content)
	}
}

func TestPutFileUpdatesExisting(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"type":     "file",
				"encoding": "base64",
				"path":     "README.md",
				"sha":      "oldblobsha",
				"content":  base64.StdEncoding.EncodeToString([]byte("# old\n")),
			})
		case http.MethodPut:
			if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
				t.Fatalf("decode PUT body: %v", err)
			}
			fmt.Fprintln(w, `{"commit": {"sha": "newcommit"}}`)
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	}))

	sha, err := client.PutFile(context.Background(), "octo", "widget", PutFileOptions{
		Path:        "README.md",
		Content:     []byte("# new\n"),
		Message:     "docs: regenerate README",
		Branch:      "main",
		AuthorName:  "readmebot",
		AuthorEmail: "readmebot@users.noreply.github.com",
	})
	if err != nil {
		t.Fatalf("PutFile() error = %v", err)
	}
	if sha != "newcommit" {
		t.Errorf("PutFile() = %q, want newcommit", sha)
	}

	if gotBody["sha"] != "oldblobsha" {
		t.Errorf("PUT body sha = %v, want oldblobsha (update path)", gotBody["sha"])
	}
	if gotBody["message"] != "docs: regenerate README" {
		t.Errorf("PUT body message = %v", gotBody["message"])
	}
	committer, _ := gotBody["committer"].(map[string]any)
	if committer == nil || committer["name"] != "readmebot" {
		t.Errorf("PUT body committer = %v, want readmebot", gotBody["committer"])
	}
}

func TestPutFileCreatesMissing(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintln(w, `{"message": "Not Found"}`)
		case http.MethodPut:
			if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
				t.Fatalf("decode PUT body: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintln(w, `{"commit": {"sha": "firstcommit"}}`)
		default:
			t.Fatalf("unexpected method %s", r.Method)
		}
	}))

	sha, err := client.PutFile(context.Background(), "octo", "widget", PutFileOptions{
		Path:    "README.md",
		Content: []byte("# fresh\n"),
		Message: "docs: regenerate README",
		Branch:  "main",
	})
	if err != nil {
		t.Fatalf("PutFile() error = %v", err)
	}
	if sha != "firstcommit" {
		t.Errorf("PutFile() = %q, want firstcommit", sha)
	}

	if _, hasSHA := gotBody["sha"]; hasSHA {
		t.Error("PUT body carries a sha on the create path")
	}
}

func TestPutFileRejectsDirectory(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("unexpected method %s", r.Method)
		}
		// Contents API returns an array when the path is a directory.
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `[{"type": "file", "path": "README.md/index.md", "sha": "s1"}]`)
	}))

	_, err := client.PutFile(context.Background(), "octo", "widget", PutFileOptions{
		Path:    "README.md",
		Content: []byte("# nope\n"),
		Message: "docs: regenerate README",
		Branch:  "main",
	})
	if err == nil {
		t.Fatal("PutFile() error = nil, want directory error")
	}
	if !strings.Contains(err.Error(), "path is a directory") {
		t.Errorf("PutFile() error = %v, want path is a directory", err)
	}
}
