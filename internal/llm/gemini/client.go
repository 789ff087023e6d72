// Package gemini wraps the google generative-ai SDK for single-turn text
// generation.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client generates text through the Gemini API.
type Client struct {
	client *genai.Client
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Client, error) {
	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{client: client}, nil
}

// GenerateRequest is a single-turn generation request.
type GenerateRequest struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int
}

// GenerateResponse carries the generated text and token usage.
type GenerateResponse struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Generate runs one generation call and flattens the candidate content.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	model := c.client.GenerativeModel(req.Model)
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	text := flattenResponse(resp)
	if text == "" {
		return nil, fmt.Errorf("gemini: empty response from model %s", req.Model)
	}

	out := &GenerateResponse{Text: text}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

// Close releases the underlying SDK client.
func (c *Client) Close() error {
	return c.client.Close()
}

func flattenResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	return sb.String()
}
