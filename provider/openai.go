package provider

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go"
)

const (
	defaultOpenAIModel          = "gpt-4o-mini"
	defaultOpenAIEmbeddingModel = openai.EmbeddingModelTextEmbedding3Small
	defaultOpenAIEmbeddingDims  = 1536
)

// OpenAICompleter implements Completer on top of the OpenAI chat
// completions API.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// OpenAICompleterOption configures an OpenAICompleter.
type OpenAICompleterOption func(*OpenAICompleter)

// WithOpenAIModel overrides the default chat model.
func WithOpenAIModel(model string) OpenAICompleterOption {
	return func(c *OpenAICompleter) {
		c.model = model
	}
}

// NewOpenAICompleter wraps an existing OpenAI client.
func NewOpenAICompleter(client *openai.Client, opts ...OpenAICompleterOption) *OpenAICompleter {
	c := &OpenAICompleter{
		client: client,
		model:  defaultOpenAIModel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Complete runs a single-turn chat completion.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt, system string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(c.model),
		Messages:  messages,
		MaxTokens: openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// OpenAIEmbedder implements Embedder on top of the OpenAI embeddings API.
type OpenAIEmbedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// OpenAIEmbedderOption configures an OpenAIEmbedder.
type OpenAIEmbedderOption func(*OpenAIEmbedder)

// WithOpenAIEmbeddingModel overrides the default embedding model. dims must
// match the model's output size.
func WithOpenAIEmbeddingModel(model string, dims int) OpenAIEmbedderOption {
	return func(e *OpenAIEmbedder) {
		e.model = openai.EmbeddingModel(model)
		e.dimensions = dims
	}
}

// NewOpenAIEmbedder wraps an existing OpenAI client.
func NewOpenAIEmbedder(client *openai.Client, opts ...OpenAIEmbedderOption) *OpenAIEmbedder {
	e := &OpenAIEmbedder{
		client:     client,
		model:      defaultOpenAIEmbeddingModel,
		dimensions: defaultOpenAIEmbeddingDims,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Embed converts a single text to an embedding vector.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: e.model,
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embedding: no data returned")
	}

	raw := resp.Data[0].Embedding
	embedding := make([]float32, len(raw))
	for i, v := range raw {
		embedding[i] = float32(v)
	}
	return embedding, nil
}

// Dimensions returns the embedding vector size.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}
