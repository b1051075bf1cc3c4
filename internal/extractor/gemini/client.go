// Package gemini wraps the Google Gemini API behind the extractor's
// ModelClient interface.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// DefaultModel supports inline PDF attachments and is fast enough for
// interactive enrichment.
const DefaultModel = "gemini-2.5-flash"

// Config carries the service credentials and model selection.
type Config struct {
	APIKey string
	Model  string
}

// Client calls Gemini through langchaingo.
type Client struct {
	llm llms.Model
}

// New builds a Client. The API key is required.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{llm: llm}, nil
}

// Generate sends the prompt plus the binary attachment and returns the
// model's text response. The SDK handles the inline-data encoding of
// the attachment.
func (c *Client) Generate(ctx context.Context, prompt string, attachment []byte, mimeType string) (string, error) {
	msg := llms.MessageContent{
		Role: llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{
			llms.TextPart(prompt),
			llms.BinaryPart(mimeType, attachment),
		},
	}
	resp, err := c.llm.GenerateContent(ctx, []llms.MessageContent{msg})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}
	return resp.Choices[0].Content, nil
}
