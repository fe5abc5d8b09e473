// Package provider defines the LLM collaborator contracts the consolidation
// engine depends on: text completion and text embedding. Implementations
// are thin adapters over vendor SDKs; the engine never talks to a vendor
// client directly.
package provider

import "context"

// Completer converts a prompt (plus optional system instruction) into
// free-form text.
type Completer interface {
	// Complete runs one prompt. system may be empty; maxTokens <= 0 lets
	// the implementation choose its default.
	Complete(ctx context.Context, prompt, system string, maxTokens int) (string, error)
}

// Embedder converts text to a fixed-length vector.
// Implementations: OpenAIEmbedder (API), ONNXEmbedder (local, build tag
// "onnx"), mock.Embedder (testing).
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}
