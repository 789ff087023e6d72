// Package anthropic provides a minimal HTTP client for the Anthropic
// Messages API, covering the single-turn text completions the service needs.
package anthropic

import (
	"encoding/json"
	"fmt"
)

// MessagesRequest represents an Anthropic Messages API request.
type MessagesRequest struct {
	Model         string    `json:"model"`
	Messages      []Message `json:"messages"`
	MaxTokens     int       `json:"max_tokens"`
	System        string    `json:"system,omitempty"`
	Temperature   *float32  `json:"temperature,omitempty"`
	StopSequences []string  `json:"stop_sequences,omitempty"`
}

// Message represents a message in the conversation.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock represents a single content block in a message.
type ContentBlock struct {
	Type string `json:"type"` // "text"
	Text string `json:"text,omitempty"`
}

// MessagesResponse represents an Anthropic Messages API response.
type MessagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Model      string         `json:"model"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

// Text returns the concatenated text content of the response.
func (r *MessagesResponse) Text() string {
	var result string
	for _, block := range r.Content {
		if block.Type == "text" || block.Type == "" {
			result += block.Text
		}
	}
	return result
}

// Usage reports token consumption.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// APIError is the error envelope returned by the API.
type APIError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("anthropic: %s (%s, status %d)", e.Message, e.Type, e.StatusCode)
}

type errorResponse struct {
	Type  string    `json:"type"`
	Error *APIError `json:"error"`
}

// parseErrorResponse attempts to parse an error response body. Returns nil
// if the body is not the API's error envelope.
func parseErrorResponse(statusCode int, data []byte) *APIError {
	var errResp errorResponse
	if err := json.Unmarshal(data, &errResp); err != nil {
		return nil
	}
	if errResp.Error == nil {
		return nil
	}
	errResp.Error.StatusCode = statusCode
	return errResp.Error
}
