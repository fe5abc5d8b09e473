package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

const defaultAnthropicModel = "claude-sonnet-4-20250514"

// AnthropicCompleter implements Completer on top of the Anthropic Messages
// API.
type AnthropicCompleter struct {
	client *anthropic.Client
	model  string
}

// AnthropicOption configures an AnthropicCompleter.
type AnthropicOption func(*AnthropicCompleter)

// WithAnthropicModel overrides the default model.
func WithAnthropicModel(model string) AnthropicOption {
	return func(c *AnthropicCompleter) {
		c.model = model
	}
}

// NewAnthropicCompleter wraps an existing Anthropic client.
func NewAnthropicCompleter(client *anthropic.Client, opts ...AnthropicOption) *AnthropicCompleter {
	c := &AnthropicCompleter{
		client: client,
		model:  defaultAnthropicModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete runs a single-turn message request and concatenates the text
// blocks of the response.
func (c *AnthropicCompleter) Complete(ctx context.Context, prompt, system string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: system},
		}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}
