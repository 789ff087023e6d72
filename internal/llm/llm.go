// Package llm abstracts the hosted completion APIs the service can target.
package llm

import (
	"context"
	"fmt"

	"github.com/cferg/readmebot/internal/config"
	"github.com/cferg/readmebot/internal/llm/anthropic"
	"github.com/cferg/readmebot/internal/llm/gemini"
)

// Request is a single-turn completion request.
type Request struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int
}

// Usage reports token consumption as returned by the provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Response is the provider's completion.
type Response struct {
	Text  string
	Model string
	Usage Usage
}

// Provider is implemented by each hosted model backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// NewProvider builds a provider from configuration.
func NewProvider(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm: api_key required for provider %q", cfg.Provider)
	}

	switch cfg.Provider {
	case "anthropic":
		var opts []anthropic.ClientOption
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		return &anthropicProvider{client: anthropic.NewClient(cfg.APIKey, opts...)}, nil
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		return &geminiProvider{client: client}, nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}
