package forge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v69/github"
	"golang.org/x/oauth2"
)

var _ Client = (*GitHubClient)(nil)

// GitHubClient implements Client against the GitHub REST API.
type GitHubClient struct {
	client *github.Client
}

// GitHubOption configures the client.
type GitHubOption func(*githubOptions)

type githubOptions struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL points the client at a custom API endpoint (GHES or tests).
func WithBaseURL(baseURL string) GitHubOption {
	return func(o *githubOptions) {
		o.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client, replacing the oauth2 transport.
func WithHTTPClient(httpClient *http.Client) GitHubOption {
	return func(o *githubOptions) {
		o.httpClient = httpClient
	}
}

// NewGitHubClient creates a client authenticated with a static token.
func NewGitHubClient(token string, opts ...GitHubOption) (*GitHubClient, error) {
	var options githubOptions
	for _, opt := range opts {
		opt(&options)
	}

	httpClient := options.httpClient
	if httpClient == nil && token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := github.NewClient(httpClient)
	if options.baseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(options.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid base URL %q: %w", options.baseURL, err)
		}
		client.BaseURL = base
	}

	return &GitHubClient{client: client}, nil
}

func (c *GitHubClient) GetRepo(ctx context.Context, owner, repo string) (*Repo, error) {
	r, _, err := c.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return nil, fmt.Errorf("get repository %s/%s: %w", owner, repo, err)
	}
	return &Repo{
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		DefaultBranch: r.GetDefaultBranch(),
		Language:      r.GetLanguage(),
		Topics:        r.Topics,
	}, nil
}

func (c *GitHubClient) ListTree(ctx context.Context, owner, repo, ref string) ([]TreeEntry, error) {
	tree, _, err := c.client.Git.GetTree(ctx, owner, repo, ref, true)
	if err != nil {
		return nil, fmt.Errorf("get tree %s/%s@%s: %w", owner, repo, ref, err)
	}

	entries := make([]TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if e.GetType() != "blob" {
			continue
		}
		entries = append(entries, TreeEntry{
			Path: e.GetPath(),
			Size: e.GetSize(),
			SHA:  e.GetSHA(),
		})
	}
	return entries, nil
}

func (c *GitHubClient) GetFile(ctx context.Context, owner, repo, path, ref string) (string, error) {
	file, _, _, err := c.client.Repositories.GetContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return "", fmt.Errorf("get contents %s/%s/%s@%s: %w", owner, repo, path, ref, err)
	}
	if file == nil {
		return "", fmt.Errorf("get contents %s/%s/%s@%s: path is a directory", owner, repo, path, ref)
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode contents %s/%s/%s: %w", owner, repo, path, err)
	}
	return content, nil
}

func (c *GitHubClient) PutFile(ctx context.Context, owner, repo string, opts PutFileOptions) (string, error) {
	fileOpts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(opts.Message),
		Content: opts.Content,
		Branch:  github.Ptr(opts.Branch),
	}
	if opts.AuthorName != "" {
		committer := &github.CommitAuthor{
			Name:  github.Ptr(opts.AuthorName),
			Email: github.Ptr(opts.AuthorEmail),
		}
		fileOpts.Committer = committer
		fileOpts.Author = committer
	}

	// Updates need the current blob SHA. A 404 means the file doesn't
	// exist yet and we create it.
	existing, _, resp, err := c.client.Repositories.GetContents(ctx, owner, repo, opts.Path, &github.RepositoryContentGetOptions{Ref: opts.Branch})
	switch {
	case err == nil && existing != nil:
		fileOpts.SHA = existing.SHA
	case err == nil:
		return "", fmt.Errorf("write %s/%s/%s: path is a directory", owner, repo, opts.Path)
	case resp != nil && resp.StatusCode == http.StatusNotFound:
		// Create path below
	default:
		return "", fmt.Errorf("stat %s/%s/%s: %w", owner, repo, opts.Path, err)
	}

	var result *github.RepositoryContentResponse
	if fileOpts.SHA != nil {
		result, _, err = c.client.Repositories.UpdateFile(ctx, owner, repo, opts.Path, fileOpts)
	} else {
		result, _, err = c.client.Repositories.CreateFile(ctx, owner, repo, opts.Path, fileOpts)
	}
	if err != nil {
		return "", fmt.Errorf("write %s/%s/%s: %w", owner, repo, opts.Path, err)
	}

	return result.Commit.GetSHA(), nil
}
