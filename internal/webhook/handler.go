package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cferg/readmebot/internal/server"
)

// maxPayloadBytes bounds how much webhook body we read.
const maxPayloadBytes = 1 << 20

// Runner processes a validated push event.
type Runner interface {
	HandlePush(ctx context.Context, event *PushEvent) (*RunResult, error)
}

// RunResult mirrors the agent's outcome without importing it (the agent
// package imports webhook for the payload types).
type RunResult struct {
	RunID      string
	Status     string
	SkipReason string
	CommitSHA  string
}

// Handler is the inbound push-event endpoint.
type Handler struct {
	runner Runner
	secret string
	logger *slog.Logger
}

// NewHandler creates a webhook handler. An empty secret disables signature
// validation.
func NewHandler(runner Runner, secret string, logger *slog.Logger) *Handler {
	return &Handler{runner: runner, secret: secret, logger: logger}
}

type response struct {
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	RunID     string `json:"run_id,omitempty"`
	CommitSHA string `json:"commit_sha,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandlePush validates and decodes the delivery, runs the agent, and maps
// the outcome to a JSON response.
func (h *Handler) HandlePush(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPayloadBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, response{Status: "error", Error: "payload too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, response{Status: "error", Error: "failed to read body"})
		return
	}

	if h.secret != "" {
		if err := Validate(h.secret, body, r.Header.Get(SignatureHeader)); err != nil {
			server.AddError(r.Context(), err)
			writeJSON(w, http.StatusUnauthorized, response{Status: "error", Error: err.Error()})
			return
		}
	}

	// Non-push events carry no ref; report a skip rather than an error so
	// webhook config with extra event types stays quiet.
	if eventType := r.Header.Get("X-GitHub-Event"); eventType != "" && eventType != "push" {
		writeJSON(w, http.StatusOK, response{Status: "skipped", Reason: "not a push event"})
		return
	}

	var event PushEvent
	if err := json.Unmarshal(body, &event); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Status: "error", Error: "malformed payload"})
		return
	}

	server.AddLogField(r.Context(), "repo", event.Repository.FullName)
	server.AddLogField(r.Context(), "ref", event.Ref)

	result, err := h.runner.HandlePush(r.Context(), &event)
	if err != nil {
		server.AddError(r.Context(), err)
		resp := response{Status: "error", Error: "regeneration failed"}
		if result != nil {
			resp.RunID = result.RunID
		}
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}

	writeJSON(w, http.StatusOK, response{
		Status:    result.Status,
		Reason:    result.SkipReason,
		RunID:     result.RunID,
		CommitSHA: result.CommitSHA,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Status line is already written; an encode error has nowhere to go.
	_ = json.NewEncoder(w).Encode(v)
}
