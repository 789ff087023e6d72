package llm

import (
	"context"

	"github.com/cferg/readmebot/internal/llm/anthropic"
)

// anthropicProvider adapts the Anthropic Messages API client to the Provider
// interface.
type anthropicProvider struct {
	client *anthropic.Client
}

var _ Provider = (*anthropicProvider)(nil)

func (p *anthropicProvider) Name() string {
	return "anthropic"
}

func (p *anthropicProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	apiReq := &anthropic.MessagesRequest{
		Model:     req.Model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Messages: []anthropic.Message{
			{
				Role:    "user",
				Content: []anthropic.ContentBlock{{Type: "text", Text: req.Prompt}},
			},
		},
	}

	resp, err := p.client.CreateMessage(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	return &Response{
		Text:  resp.Text(),
		Model: resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.InputTokens,
			CompletionTokens: resp.Usage.OutputTokens,
		},
	}, nil
}
