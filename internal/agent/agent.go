// Package agent runs the regeneration pipeline for one push event: skip
// checks, content snapshot, prompt assembly, model call, and write-back.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cferg/readmebot/internal/config"
	"github.com/cferg/readmebot/internal/forge"
	"github.com/cferg/readmebot/internal/llm"
	"github.com/cferg/readmebot/internal/notify"
	"github.com/cferg/readmebot/internal/prompt"
	"github.com/cferg/readmebot/internal/snapshot"
	"github.com/cferg/readmebot/internal/storage"
	"github.com/cferg/readmebot/internal/webhook"
)

// SkipError reports that an event was deliberately not processed.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return "skipped: " + e.Reason
}

// IsSkip returns the skip reason if err is a SkipError.
func IsSkip(err error) (string, bool) {
	var skip *SkipError
	if errors.As(err, &skip) {
		return skip.Reason, true
	}
	return "", false
}

// Agent orchestrates the regeneration pipeline.
type Agent struct {
	forge     forge.Client
	collector *snapshot.Collector
	provider  llm.Provider
	store     storage.RunStore
	notifier  *notify.Notifier
	logger    *slog.Logger

	botLogin      string
	commitMessage string
	readmePath    string
	model         string
	maxTokens     int
}

// New wires the pipeline dependencies.
func New(fc forge.Client, collector *snapshot.Collector, provider llm.Provider,
	store storage.RunStore, notifier *notify.Notifier, cfg *config.Config, logger *slog.Logger) *Agent {
	return &Agent{
		forge:         fc,
		collector:     collector,
		provider:      provider,
		store:         store,
		notifier:      notifier,
		logger:        logger,
		botLogin:      cfg.GitHub.BotLogin,
		commitMessage: cfg.GitHub.CommitMessage,
		readmePath:    cfg.GitHub.ReadmePath,
		model:         cfg.LLM.Model,
		maxTokens:     cfg.LLM.MaxTokens,
	}
}

// HandlePush processes one push event end to end and records the run. A
// *SkipError in the returned error reports a deliberate early return, not a
// failure.
func (a *Agent) HandlePush(ctx context.Context, event *webhook.PushEvent) (*webhook.RunResult, error) {
	tracer := otel.Tracer("readmebot/agent")
	ctx, span := tracer.Start(ctx, "agent.HandlePush")
	defer span.End()

	start := time.Now()
	run := &storage.Run{
		ID:      uuid.New().String(),
		Repo:    event.Repository.FullName,
		Ref:     event.Ref,
		HeadSHA: event.After,
	}
	span.SetAttributes(
		attribute.String("repo", run.Repo),
		attribute.String("ref", run.Ref),
	)

	result, err := a.regenerate(ctx, event, run)

	run.DurationMS = time.Since(start).Milliseconds()
	switch {
	case err == nil:
		run.Status = storage.StatusCompleted
	default:
		if reason, ok := IsSkip(err); ok {
			run.Status = storage.StatusSkipped
			run.SkipReason = reason
		} else {
			run.Status = storage.StatusFailed
			run.Error = err.Error()
		}
	}

	if saveErr := a.store.SaveRun(ctx, run); saveErr != nil {
		a.logger.Error("failed to save run record",
			slog.String("run_id", run.ID),
			slog.String("error", saveErr.Error()))
	}

	if a.notifier != nil {
		if notifyErr := a.notifier.Publish(ctx, run); notifyErr != nil {
			a.logger.Error("notify failed",
				slog.String("run_id", run.ID),
				slog.String("error", notifyErr.Error()))
		}
	}

	if err != nil {
		if reason, ok := IsSkip(err); ok {
			return &webhook.RunResult{RunID: run.ID, Status: storage.StatusSkipped, SkipReason: reason}, nil
		}
		return &webhook.RunResult{RunID: run.ID, Status: storage.StatusFailed}, err
	}

	result.RunID = run.ID
	return result, nil
}

func (a *Agent) regenerate(ctx context.Context, event *webhook.PushEvent, run *storage.Run) (*webhook.RunResult, error) {
	if err := a.checkSkip(event); err != nil {
		return nil, err
	}

	owner := event.Repository.OwnerLogin()
	name := event.Repository.Name
	branch := event.Branch()

	repo, err := a.forge.GetRepo(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("fetch repository metadata: %w", err)
	}

	// Payloads without default_branch get the branch check against the
	// fetched metadata instead of a free pass.
	if event.Repository.DefaultBranch == "" && repo.DefaultBranch != "" && branch != repo.DefaultBranch {
		return nil, &SkipError{Reason: fmt.Sprintf("push to %s, not default branch %s", branch, repo.DefaultBranch)}
	}

	snap, err := a.collector.Collect(ctx, owner, name, event.After)
	if err != nil {
		return nil, fmt.Errorf("collect snapshot: %w", err)
	}

	a.logger.Info("snapshot collected",
		slog.String("repo", run.Repo),
		slog.Int("files", len(snap.Files)),
		slog.Int("tokens", snap.Tokens))

	resp, err := a.provider.Complete(ctx, &llm.Request{
		Model:     a.model,
		System:    prompt.System(),
		Prompt:    prompt.Build(repo, snap),
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("model completion: %w", err)
	}

	run.Provider = a.provider.Name()
	run.Model = resp.Model
	run.PromptTokens = resp.Usage.PromptTokens
	run.CompletionTokens = resp.Usage.CompletionTokens

	readme := prompt.Sanitize(resp.Text)

	commitSHA, err := a.forge.PutFile(ctx, owner, name, forge.PutFileOptions{
		Path:        a.readmePath,
		Content:     []byte(readme),
		Message:     a.commitMessage,
		Branch:      branch,
		AuthorName:  a.botLogin,
		AuthorEmail: a.botLogin + "@users.noreply.github.com",
	})
	if err != nil {
		return nil, fmt.Errorf("commit README: %w", err)
	}

	run.CommitSHA = commitSHA
	a.logger.Info("README regenerated",
		slog.String("repo", run.Repo),
		slog.String("commit_sha", commitSHA))

	return &webhook.RunResult{Status: storage.StatusCompleted, CommitSHA: commitSHA}, nil
}

// checkSkip applies the early-return guards, cheapest first.
func (a *Agent) checkSkip(event *webhook.PushEvent) error {
	head := event.HeadCommit
	if head == nil || head.ID == "" {
		return &SkipError{Reason: "missing head commit"}
	}

	branch := event.Branch()
	if branch == "" {
		return &SkipError{Reason: "not a branch push"}
	}
	if def := event.Repository.DefaultBranch; def != "" && branch != def {
		return &SkipError{Reason: fmt.Sprintf("push to %s, not default branch %s", branch, def)}
	}

	// Loop guard: skip our own commits, matched on any identity we stamp
	// on the write-back.
	if event.Sender.Login == a.botLogin ||
		head.Committer.Username == a.botLogin ||
		head.Committer.Name == a.botLogin ||
		head.Author.Username == a.botLogin {
		return &SkipError{Reason: "commit authored by bot"}
	}
	if strings.HasPrefix(head.Message, a.commitMessage) {
		return &SkipError{Reason: "commit authored by bot"}
	}

	if a.readmeOnly(event) {
		return &SkipError{Reason: "push touches only the README"}
	}

	return nil
}

// readmeOnly reports whether every path touched anywhere in the push is the
// README. The commit list can be empty or truncated on large pushes, in
// which case the head commit stands in for it.
func (a *Agent) readmeOnly(event *webhook.PushEvent) bool {
	commits := event.Commits
	if len(commits) == 0 {
		commits = []webhook.Commit{*event.HeadCommit}
	}

	var paths []string
	for i := range commits {
		paths = append(paths, commits[i].TouchedPaths()...)
	}
	if len(paths) == 0 {
		return false
	}
	for _, p := range paths {
		if p != a.readmePath {
			return false
		}
	}
	return true
}
