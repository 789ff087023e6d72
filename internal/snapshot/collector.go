// Package snapshot aggregates a bounded excerpt of a repository's content
// for prompt assembly.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/cferg/readmebot/internal/config"
	"github.com/cferg/readmebot/internal/forge"
	"github.com/cferg/readmebot/internal/tokens"
)

// File is one collected file excerpt.
type File struct {
	Path      string
	Content   string
	Truncated bool
}

// Snapshot is the bounded content selection for one head commit.
type Snapshot struct {
	Ref   string
	Files []File
	// AllPaths lists every blob in the tree, so the prompt can show
	// structure beyond the files actually excerpted.
	AllPaths []string
	// Tokens is the estimated token count of all excerpts.
	Tokens int
}

// Collector selects and fetches files from a repository tree.
type Collector struct {
	forge   forge.Client
	counter *tokens.Counter
	logger  *slog.Logger

	maxFiles     int
	maxFileBytes int
	maxTokens    int
}

// NewCollector creates a collector with the configured bounds.
func NewCollector(fc forge.Client, counter *tokens.Counter, cfg config.SnapshotConfig, logger *slog.Logger) *Collector {
	return &Collector{
		forge:        fc,
		counter:      counter,
		logger:       logger,
		maxFiles:     cfg.MaxFiles,
		maxFileBytes: cfg.MaxFileBytes,
		maxTokens:    cfg.MaxPromptTokens,
	}
}

// includedExtensions are the file types worth showing to the model.
var includedExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".tsx": true,
	".jsx": true, ".rb": true, ".rs": true, ".java": true, ".kt": true,
	".c": true, ".h": true, ".cpp": true, ".cs": true, ".php": true,
	".sh": true, ".sql": true, ".proto": true, ".graphql": true,
	".md": true, ".yaml": true, ".yml": true, ".toml": true, ".json": true,
}

// includedNames are extension-less files that still carry signal.
var includedNames = map[string]bool{
	"Dockerfile": true, "Makefile": true, "LICENSE": true,
}

// ignoredDirs never contribute to the prompt.
var ignoredDirs = []string{
	"vendor/", "node_modules/", "dist/", "build/", "target/",
	".git/", ".github/", "testdata/", "third_party/",
}

// wellKnownFirst ranks manifest-like files ahead of everything else so they
// survive the budget.
var wellKnownFirst = map[string]int{
	"go.mod": 0, "package.json": 0, "pyproject.toml": 0, "Cargo.toml": 0,
	"Gemfile": 0, "pom.xml": 0, "Makefile": 1, "Dockerfile": 1,
	"docker-compose.yml": 1, "main.go": 2,
}

// Collect lists the tree at ref, filters it, and fetches file excerpts
// until a bound is hit. Fetches are sequential; the whole flow is one
// webhook-triggered request.
func (c *Collector) Collect(ctx context.Context, owner, repo, ref string) (*Snapshot, error) {
	entries, err := c.forge.ListTree(ctx, owner, repo, ref)
	if err != nil {
		return nil, fmt.Errorf("list tree: %w", err)
	}

	snap := &Snapshot{Ref: ref}
	var candidates []forge.TreeEntry
	for _, e := range entries {
		snap.AllPaths = append(snap.AllPaths, e.Path)
		if c.eligible(e) {
			candidates = append(candidates, e)
		}
	}

	rankEntries(candidates)

	for _, entry := range candidates {
		if len(snap.Files) >= c.maxFiles {
			break
		}
		if snap.Tokens >= c.maxTokens {
			break
		}

		content, err := c.forge.GetFile(ctx, owner, repo, entry.Path, ref)
		if err != nil {
			// One unreadable file shouldn't sink the run.
			c.logger.Warn("skipping unreadable file",
				slog.String("path", entry.Path),
				slog.String("error", err.Error()))
			continue
		}

		file := File{Path: entry.Path, Content: content}
		if len(content) > c.maxFileBytes {
			file.Content = truncateAtLine(content, c.maxFileBytes)
			file.Truncated = true
		}

		cost := c.counter.Count(file.Content)
		if snap.Tokens+cost > c.maxTokens && len(snap.Files) > 0 {
			break
		}
		snap.Tokens += cost
		snap.Files = append(snap.Files, file)
	}

	if len(snap.Files) == 0 {
		return nil, fmt.Errorf("no readable text files at %s/%s@%s", owner, repo, ref)
	}

	return snap, nil
}

func (c *Collector) eligible(e forge.TreeEntry) bool {
	for _, dir := range ignoredDirs {
		if strings.HasPrefix(e.Path, dir) || strings.Contains(e.Path, "/"+dir) {
			return false
		}
	}

	base := path.Base(e.Path)
	if includedNames[base] || isWellKnown(base) {
		return true
	}
	return includedExtensions[path.Ext(base)]
}

func isWellKnown(base string) bool {
	_, ok := wellKnownFirst[base]
	return ok
}

// rankEntries sorts candidates so manifests come first, then shallow paths,
// then lexicographic for determinism.
func rankEntries(entries []forge.TreeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := rank(entries[i].Path), rank(entries[j].Path)
		if ri != rj {
			return ri < rj
		}
		di, dj := strings.Count(entries[i].Path, "/"), strings.Count(entries[j].Path, "/")
		if di != dj {
			return di < dj
		}
		return entries[i].Path < entries[j].Path
	})
}

func rank(p string) int {
	if r, ok := wellKnownFirst[path.Base(p)]; ok {
		return r
	}
	return 3
}

// truncateAtLine cuts content to at most max bytes, backing up to the last
// full line so excerpts never end mid-statement.
func truncateAtLine(content string, max int) string {
	if len(content) <= max {
		return content
	}
	cut := content[:max]
	if idx := strings.LastIndexByte(cut, '\n'); idx > 0 {
		cut = cut[:idx]
	}
	return cut
}
