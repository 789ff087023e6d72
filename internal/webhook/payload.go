package webhook

import "strings"

// PushEvent is the subset of the push-event payload the service acts on.
// Field names follow the hosting provider's JSON schema; everything else in
// the payload is ignored.
type PushEvent struct {
	Ref        string     `json:"ref"`
	Before     string     `json:"before"`
	After      string     `json:"after"`
	Repository Repository `json:"repository"`
	Pusher     Pusher     `json:"pusher"`
	Sender     Sender     `json:"sender"`
	HeadCommit *Commit    `json:"head_commit"`
	Commits    []Commit   `json:"commits"`
}

type Repository struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	Description   string `json:"description"`
	DefaultBranch string `json:"default_branch"`
	Language      string `json:"language"`
	HTMLURL       string `json:"html_url"`
	Owner         Owner  `json:"owner"`
}

type Owner struct {
	Login string `json:"login"`
	Name  string `json:"name"`
}

type Pusher struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Sender struct {
	Login string `json:"login"`
	Type  string `json:"type"` // "User" or "Bot"
}

type Commit struct {
	ID        string   `json:"id"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp"`
	Author    Identity `json:"author"`
	Committer Identity `json:"committer"`
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Modified  []string `json:"modified"`
}

type Identity struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// OwnerLogin returns the repository owner login, falling back to the
// owner name field some payload variants use instead.
func (r Repository) OwnerLogin() string {
	if r.Owner.Login != "" {
		return r.Owner.Login
	}
	return r.Owner.Name
}

// Branch extracts the branch name from the ref, or "" for non-branch refs.
func (e *PushEvent) Branch() string {
	const prefix = "refs/heads/"
	if !strings.HasPrefix(e.Ref, prefix) {
		return ""
	}
	return strings.TrimPrefix(e.Ref, prefix)
}

// TouchedPaths returns every path added, removed, or modified by the
// commit.
func (c *Commit) TouchedPaths() []string {
	paths := make([]string, 0, len(c.Added)+len(c.Removed)+len(c.Modified))
	paths = append(paths, c.Added...)
	paths = append(paths, c.Removed...)
	paths = append(paths, c.Modified...)
	return paths
}
