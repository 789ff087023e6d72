// Package forge talks to the source-hosting REST API: reading the tree and
// file contents at a commit, and writing the regenerated README back.
package forge

import "context"

// TreeEntry is a blob entry in a repository tree.
type TreeEntry struct {
	Path string
	Size int
	SHA  string
}

// Repo carries the repository metadata the prompt builder cares about.
type Repo struct {
	FullName      string
	Description   string
	DefaultBranch string
	Language      string
	Topics        []string
}

// PutFileOptions describes a create-or-update of a single file.
type PutFileOptions struct {
	Path    string
	Content []byte
	Message string
	Branch  string
	// AuthorName/AuthorEmail set the commit identity; the webhook loop
	// guard matches on this name.
	AuthorName  string
	AuthorEmail string
}

// Client is the narrow surface the regeneration pipeline needs.
type Client interface {
	GetRepo(ctx context.Context, owner, repo string) (*Repo, error)
	ListTree(ctx context.Context, owner, repo, ref string) ([]TreeEntry, error)
	GetFile(ctx context.Context, owner, repo, path, ref string) (string, error)
	// PutFile creates or updates a file and returns the new commit SHA.
	PutFile(ctx context.Context, owner, repo string, opts PutFileOptions) (string, error)
}
