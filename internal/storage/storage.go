// Package storage defines the run-history store. Runs are history for
// operators, not coordination state; losing them never affects correctness.
package storage

import (
	"context"
	"errors"
	"time"
)

// Run statuses.
const (
	StatusSkipped   = "skipped"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = errors.New("run not found")

// Run records one webhook delivery and its outcome.
type Run struct {
	ID               string    `json:"id"`
	Repo             string    `json:"repo"`
	Ref              string    `json:"ref"`
	HeadSHA          string    `json:"head_sha"`
	Status           string    `json:"status"`
	SkipReason       string    `json:"skip_reason,omitempty"`
	Provider         string    `json:"provider,omitempty"`
	Model            string    `json:"model,omitempty"`
	PromptTokens     int       `json:"prompt_tokens,omitempty"`
	CompletionTokens int       `json:"completion_tokens,omitempty"`
	CommitSHA        string    `json:"commit_sha,omitempty"`
	Error            string    `json:"error,omitempty"`
	DurationMS       int64     `json:"duration_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

// ListOptions controls run listing.
type ListOptions struct {
	Repo   string
	Status string
	Limit  int
	Offset int
}

// RunStore persists run records.
type RunStore interface {
	SaveRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, opts ListOptions) ([]*Run, error)
	Close() error
}
