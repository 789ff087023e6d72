package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cferg/readmebot/internal/storage"
)

// Store is a SQLite implementation of RunStore
type Store struct {
	db *sql.DB
}

var _ storage.RunStore = (*Store)(nil)

// New creates a new SQLite store
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			repo TEXT NOT NULL,
			ref TEXT NOT NULL,
			head_sha TEXT NOT NULL,
			status TEXT NOT NULL,
			skip_reason TEXT,
			provider TEXT,
			model TEXT,
			prompt_tokens INTEGER NOT NULL DEFAULT 0,
			completion_tokens INTEGER NOT NULL DEFAULT 0,
			commit_sha TEXT,
			error TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_repo ON runs(repo)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

func (s *Store) SaveRun(ctx context.Context, run *storage.Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	query := `INSERT INTO runs (id, repo, ref, head_sha, status, skip_reason, provider, model,
		prompt_tokens, completion_tokens, commit_sha, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.Repo, run.Ref, run.HeadSHA, run.Status, run.SkipReason,
		run.Provider, run.Model, run.PromptTokens, run.CompletionTokens,
		run.CommitSHA, run.Error, run.DurationMS, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*storage.Run, error) {
	query := `SELECT id, repo, ref, head_sha, status, skip_reason, provider, model,
		prompt_tokens, completion_tokens, commit_sha, error, duration_ms, created_at
		FROM runs WHERE id = ?`

	run, err := scanRun(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

func (s *Store) ListRuns(ctx context.Context, opts storage.ListOptions) ([]*storage.Run, error) {
	query := `SELECT id, repo, ref, head_sha, status, skip_reason, provider, model,
		prompt_tokens, completion_tokens, commit_sha, error, duration_ms, created_at
		FROM runs WHERE 1=1`
	args := []any{}

	if opts.Repo != "" {
		query += " AND repo = ?"
		args = append(args, opts.Repo)
	}
	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, opts.Status)
	}

	query += " ORDER BY created_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ?"
	args = append(args, limit)

	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*storage.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*storage.Run, error) {
	var run storage.Run
	var skipReason, provider, model, commitSHA, runErr sql.NullString

	err := row.Scan(&run.ID, &run.Repo, &run.Ref, &run.HeadSHA, &run.Status,
		&skipReason, &provider, &model, &run.PromptTokens, &run.CompletionTokens,
		&commitSHA, &runErr, &run.DurationMS, &run.CreatedAt)
	if err != nil {
		return nil, err
	}

	run.SkipReason = skipReason.String
	run.Provider = provider.String
	run.Model = model.String
	run.CommitSHA = commitSHA.String
	run.Error = runErr.String
	return &run, nil
}
