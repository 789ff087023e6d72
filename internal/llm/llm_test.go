package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/cferg/readmebot/internal/config"
)

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("anthropic", func(t *testing.T) {
		p, err := NewProvider(ctx, config.LLMConfig{
			Provider: "anthropic",
			APIKey:   "test-key",
			Model:    "claude-sonnet-4-20250514",
		})
		if err != nil {
			t.Fatalf("NewProvider() error = %v", err)
		}
		if p.Name() != "anthropic" {
			t.Errorf("Name() = %q, want anthropic", p.Name())
		}
	})

	t.Run("missing api key", func(t *testing.T) {
		_, err := NewProvider(ctx, config.LLMConfig{Provider: "anthropic"})
		if err == nil || !strings.Contains(err.Error(), "api_key required") {
			t.Errorf("NewProvider() error = %v, want api_key required", err)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewProvider(ctx, config.LLMConfig{Provider: "oracle", APIKey: "k"})
		if err == nil || !strings.Contains(err.Error(), "unknown provider") {
			t.Errorf("NewProvider() error = %v, want unknown provider", err)
		}
	})
}
