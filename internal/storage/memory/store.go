// Package memory provides an in-memory RunStore for tests and for running
// without persistence.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cferg/readmebot/internal/storage"
)

// Store keeps runs in memory.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*storage.Run
}

var _ storage.RunStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{runs: make(map[string]*storage.Run)}
}

func (s *Store) SaveRun(ctx context.Context, run *storage.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	clone := *run
	s.runs[run.ID] = &clone
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*storage.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *run
	return &clone, nil
}

func (s *Store) ListRuns(ctx context.Context, opts storage.ListOptions) ([]*storage.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var runs []*storage.Run
	for _, run := range s.runs {
		if opts.Repo != "" && run.Repo != opts.Repo {
			continue
		}
		if opts.Status != "" && run.Status != opts.Status {
			continue
		}
		clone := *run
		runs = append(runs, &clone)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(runs) {
			return nil, nil
		}
		runs = runs[opts.Offset:]
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

func (s *Store) Close() error {
	return nil
}
