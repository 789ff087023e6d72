package snapshot

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/cferg/readmebot/internal/config"
	"github.com/cferg/readmebot/internal/forge"
	"github.com/cferg/readmebot/internal/tokens"
)

type fakeForge struct {
	tree  []forge.TreeEntry
	files map[string]string
}

func (f *fakeForge) GetRepo(ctx context.Context, owner, repo string) (*forge.Repo, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeForge) ListTree(ctx context.Context, owner, repo, ref string) ([]forge.TreeEntry, error) {
	return f.tree, nil
}

func (f *fakeForge) GetFile(ctx context.Context, owner, repo, path, ref string) (string, error) {
	content, ok := f.files[path]
	if !ok {
		return "", errors.New("not found")
	}
	return content, nil
}

func (f *fakeForge) PutFile(ctx context.Context, owner, repo string, opts forge.PutFileOptions) (string, error) {
	return "", errors.New("not implemented")
}

func newCollector(ff *fakeForge, cfg config.SnapshotConfig) *Collector {
	logger := slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
	return NewCollector(ff, tokens.NewCounter(), cfg, logger)
}

func defaultBounds() config.SnapshotConfig {
	return config.SnapshotConfig{
		MaxFiles:        10,
		MaxFileBytes:    4096,
		MaxPromptTokens: 8000,
	}
}

func TestCollectFiltersAndRanks(t *testing.T) {
	ff := &fakeForge{
		tree: []forge.TreeEntry{
			{Path: "internal/service/service.go", Size: 50},
			{Path: "vendor/github.com/dep/dep.go", Size: 50},
			{Path: "assets/logo.png", Size: 5000},
			{Path: "node_modules/leftpad/index.js", Size: 50},
			{Path: "go.mod", Size: 30},
			{Path: "main.go", Size: 40},
			{Path: ".github/workflows/ci.yml", Size: 40},
			{Path: "Dockerfile", Size: 60},
		},
		files: map[string]string{
			"internal/service/service.go": "package service\n",
			"go.mod":                      "module example.com/app\n",
			"main.go":                     "package main\n",
			"Dockerfile":                  "FROM golang:1.25\n",
		},
	}

	snap, err := newCollector(ff, defaultBounds()).Collect(context.Background(), "octo", "app", "sha")
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	var paths []string
	for _, f := range snap.Files {
		paths = append(paths, f.Path)
	}

	for _, excluded := range []string{"vendor/github.com/dep/dep.go", "assets/logo.png", "node_modules/leftpad/index.js", ".github/workflows/ci.yml"} {
		for _, p := range paths {
			if p == excluded {
				t.Errorf("Collect() included %s", excluded)
			}
		}
	}

	if len(paths) == 0 || paths[0] != "go.mod" {
		t.Errorf("Collect() order = %v, want go.mod first", paths)
	}

	// The full tree listing still carries everything, including the
	// excluded entries.
	if len(snap.AllPaths) != len(ff.tree) {
		t.Errorf("AllPaths = %d entries, want %d", len(snap.AllPaths), len(ff.tree))
	}

	if snap.Tokens <= 0 {
		t.Error("Collect() produced zero token estimate")
	}
}

func TestCollectTruncatesLargeFiles(t *testing.T) {
	big := strings.Repeat("func line() {}\n", 100)
	ff := &fakeForge{
		tree:  []forge.TreeEntry{{Path: "big.go", Size: len(big)}},
		files: map[string]string{"big.go": big},
	}

	cfg := defaultBounds()
	cfg.MaxFileBytes = 100

	snap, err := newCollector(ff, cfg).Collect(context.Background(), "octo", "app", "sha")
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if len(snap.Files) != 1 {
		t.Fatalf("Collect() returned %d files, want 1", len(snap.Files))
	}
	f := snap.Files[0]
	if !f.Truncated {
		t.Error("expected file to be marked truncated")
	}
	if len(f.Content) > 100 {
		t.Errorf("content length = %d, want <= 100", len(f.Content))
	}
	if strings.HasSuffix(f.Content, "fun") {
		t.Error("content cut mid-line")
	}
	if !strings.HasSuffix(f.Content, "}") {
		t.Errorf("content should end at a line boundary, got %q", f.Content[len(f.Content)-10:])
	}
}

func TestCollectHonorsMaxFiles(t *testing.T) {
	ff := &fakeForge{files: map[string]string{}}
	for _, p := range []string{"a.go", "b.go", "c.go", "d.go"} {
		ff.tree = append(ff.tree, forge.TreeEntry{Path: p, Size: 20})
		ff.files[p] = "package x\n"
	}

	cfg := defaultBounds()
	cfg.MaxFiles = 2

	snap, err := newCollector(ff, cfg).Collect(context.Background(), "octo", "app", "sha")
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(snap.Files) != 2 {
		t.Errorf("Collect() returned %d files, want 2", len(snap.Files))
	}
}

func TestCollectSkipsUnreadableFiles(t *testing.T) {
	ff := &fakeForge{
		tree: []forge.TreeEntry{
			{Path: "gone.go", Size: 20},
			{Path: "main.go", Size: 20},
		},
		files: map[string]string{"main.go": "package main\n"},
	}

	snap, err := newCollector(ff, defaultBounds()).Collect(context.Background(), "octo", "app", "sha")
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(snap.Files) != 1 || snap.Files[0].Path != "main.go" {
		t.Errorf("Collect() files = %+v, want just main.go", snap.Files)
	}
}

func TestCollectErrorsWhenNothingReadable(t *testing.T) {
	ff := &fakeForge{
		tree:  []forge.TreeEntry{{Path: "logo.png", Size: 10}},
		files: map[string]string{},
	}

	_, err := newCollector(ff, defaultBounds()).Collect(context.Background(), "octo", "app", "sha")
	if err == nil {
		t.Fatal("Collect() expected error for snapshot with no text files")
	}
}

func TestTruncateAtLine(t *testing.T) {
	content := "one\ntwo\nthree\n"

	if got := truncateAtLine(content, 100); got != content {
		t.Errorf("truncateAtLine() modified content under the limit")
	}

	got := truncateAtLine(content, 9)
	if got != "one\ntwo" {
		t.Errorf("truncateAtLine() = %q, want %q", got, "one\ntwo")
	}
}
