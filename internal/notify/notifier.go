// Package notify delivers run-completion events to configured HTTP
// endpoints.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cferg/readmebot/internal/config"
	"github.com/cferg/readmebot/internal/safehttp"
	"github.com/cferg/readmebot/internal/storage"
)

// Event is the payload posted to each endpoint.
type Event struct {
	Run *storage.Run `json:"run"`
}

// Endpoint calls one external HTTP endpoint with the run record.
type Endpoint struct {
	name    string
	url     string
	secret  string
	retries int
	// failRun propagates delivery failure to the caller instead of just
	// logging it.
	failRun bool
	client  *http.Client
}

// EndpointConfig configures an endpoint.
type EndpointConfig struct {
	Name    string
	URL     string
	Secret  string
	Timeout time.Duration
	Retries int
	FailRun bool
	// Transport overrides the SSRF-guarded default.
	Transport http.RoundTripper
}

// NewEndpoint creates a notify endpoint.
func NewEndpoint(cfg EndpointConfig) *Endpoint {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	transport := cfg.Transport
	if transport == nil {
		transport = safehttp.Transport
	}

	return &Endpoint{
		name:    cfg.Name,
		url:     cfg.URL,
		secret:  cfg.Secret,
		retries: cfg.Retries,
		failRun: cfg.FailRun,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (e *Endpoint) deliver(ctx context.Context, body []byte) error {
	var lastErr error

	attempts := e.retries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		err := e.doRequest(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			break
		}
	}

	return lastErr
}

func (e *Endpoint) doRequest(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if e.secret != "" {
		mac := hmac.New(sha256.New, []byte(e.secret))
		mac.Write(body)
		req.Header.Set("X-Readmebot-Signature-256", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify endpoint returned status %d", resp.StatusCode)
	}

	return nil
}

// Notifier fans a run record out to every configured endpoint, in order.
type Notifier struct {
	endpoints []*Endpoint
	logger    *slog.Logger
}

// NewNotifier builds a notifier from configuration.
func NewNotifier(cfg config.NotifyConfig, logger *slog.Logger) (*Notifier, error) {
	n := &Notifier{logger: logger}

	for _, epCfg := range cfg.Endpoints {
		timeout := time.Duration(0)
		if epCfg.Timeout != "" {
			var err error
			timeout, err = time.ParseDuration(epCfg.Timeout)
			if err != nil {
				return nil, fmt.Errorf("notify endpoint %s: invalid timeout %q: %w", epCfg.Name, epCfg.Timeout, err)
			}
		}

		n.endpoints = append(n.endpoints, NewEndpoint(EndpointConfig{
			Name:    epCfg.Name,
			URL:     epCfg.URL,
			Secret:  epCfg.Secret,
			Timeout: timeout,
			Retries: epCfg.Retries,
			FailRun: epCfg.OnError == "fail",
		}))
	}

	return n, nil
}

// Publish delivers the run to all endpoints. Endpoints configured with
// on_error "fail" propagate their delivery error; the rest are logged and
// ignored.
func (n *Notifier) Publish(ctx context.Context, run *storage.Run) error {
	if len(n.endpoints) == 0 {
		return nil
	}

	body, err := json.Marshal(Event{Run: run})
	if err != nil {
		return fmt.Errorf("marshal notify event: %w", err)
	}

	for _, ep := range n.endpoints {
		if err := ep.deliver(ctx, body); err != nil {
			if ep.failRun {
				return fmt.Errorf("notify endpoint %s: %w", ep.name, err)
			}
			n.logger.Warn("notify delivery failed",
				slog.String("endpoint", ep.name),
				slog.String("error", err.Error()))
		}
	}

	return nil
}
