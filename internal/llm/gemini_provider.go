package llm

import (
	"context"

	"github.com/cferg/readmebot/internal/llm/gemini"
)

// geminiProvider adapts the Gemini SDK client to the Provider interface.
type geminiProvider struct {
	client *gemini.Client
}

var _ Provider = (*geminiProvider)(nil)

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	resp, err := p.client.Generate(ctx, &gemini.GenerateRequest{
		Model:     req.Model,
		System:    req.System,
		Prompt:    req.Prompt,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	return &Response{
		Text:  resp.Text,
		Model: req.Model,
		Usage: Usage{
			PromptTokens:     resp.PromptTokens,
			CompletionTokens: resp.CompletionTokens,
		},
	}, nil
}
