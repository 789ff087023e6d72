package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cferg/readmebot/internal/storage"
	"github.com/cferg/readmebot/internal/storage/memory"
)

func newTestRouter(t *testing.T) (*chi.Mux, *memory.Store) {
	t.Helper()
	store := memory.New()
	handler := NewHandler(store)

	router := chi.NewRouter()
	router.Get("/runs", handler.ListRuns)
	router.Get("/runs/{id}", handler.GetRun)
	return router, store
}

func seedRuns(t *testing.T, store *memory.Store) {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	runs := []*storage.Run{
		{ID: "r1", Repo: "octo/widget", Status: storage.StatusCompleted, CreatedAt: base},
		{ID: "r2", Repo: "octo/widget", Status: storage.StatusFailed, Error: "boom", CreatedAt: base.Add(time.Minute)},
		{ID: "r3", Repo: "octo/gadget", Status: storage.StatusSkipped, SkipReason: "push touches only the README", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, run := range runs {
		if err := store.SaveRun(context.Background(), run); err != nil {
			t.Fatalf("SaveRun(%s) error = %v", run.ID, err)
		}
	}
}

func TestListRuns(t *testing.T) {
	router, store := newTestRouter(t)
	seedRuns(t, store)

	tests := []struct {
		name    string
		url     string
		wantIDs []string
	}{
		{name: "all runs", url: "/runs", wantIDs: []string{"r3", "r2", "r1"}},
		{name: "repo filter", url: "/runs?repo=octo/gadget", wantIDs: []string{"r3"}},
		{name: "status filter", url: "/runs?status=failed", wantIDs: []string{"r2"}},
		{name: "limit", url: "/runs?limit=1", wantIDs: []string{"r3"}},
		{name: "offset", url: "/runs?limit=1&offset=2", wantIDs: []string{"r1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var body struct {
				Runs []*storage.Run `json:"runs"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid response JSON: %v", err)
			}
			if len(body.Runs) != len(tt.wantIDs) {
				t.Fatalf("got %d runs, want %d", len(body.Runs), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if body.Runs[i].ID != id {
					t.Errorf("runs[%d].ID = %q, want %q", i, body.Runs[i].ID, id)
				}
			}
		})
	}
}

func TestListRunsEmptyStore(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"runs\":[]}\n" {
		t.Errorf("body = %q, want empty runs array", got)
	}
}

func TestListRunsBadParams(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, url := range []string{"/runs?limit=abc", "/runs?limit=-1", "/runs?offset=x"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", url, rec.Code)
		}
	}
}

func TestGetRun(t *testing.T) {
	router, store := newTestRouter(t)
	seedRuns(t, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/r2", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var run storage.Run
	if err := json.Unmarshal(rec.Body.Bytes(), &run); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if run.ID != "r2" || run.Status != storage.StatusFailed || run.Error != "boom" {
		t.Errorf("run = %+v", run)
	}
}

func TestGetRunNotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
