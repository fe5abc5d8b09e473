// Package mock provides deterministic provider implementations for tests
// and offline development.
package mock

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sync"
)

// Embedder generates deterministic embeddings from a text hash. Identical
// texts always map to identical unit vectors, which is what the
// consolidation idempotency tests rely on.
type Embedder struct {
	dimensions int
}

// NewEmbedder creates a mock embedder. dims <= 0 selects 384 to match
// all-MiniLM-L6-v2.
func NewEmbedder(dims int) *Embedder {
	if dims <= 0 {
		dims = 384
	}
	return &Embedder{dimensions: dims}
}

// Embed creates a deterministic embedding from text.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	embedding := make([]float32, m.dimensions)
	for i := 0; i < m.dimensions; i++ {
		// Simple LCG keyed on the text hash.
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}

	return normalize(embedding), nil
}

// Dimensions returns the embedding size.
func (m *Embedder) Dimensions() int {
	return m.dimensions
}

// normalize converts an embedding to a unit vector.
func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}

	norm = float32(math.Sqrt(float64(norm)))
	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = v / norm
	}
	return normalized
}

// Completer returns scripted responses in order, falling back to the last
// one when the script runs out. Calls are recorded for assertions.
type Completer struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int

	// Prompts holds every prompt seen, in call order.
	Prompts []string
}

// NewCompleter creates a scripted completer.
func NewCompleter(responses ...string) *Completer {
	return &Completer{responses: responses}
}

// FailWith makes every call return err instead of a response.
func (c *Completer) FailWith(err error) *Completer {
	c.errs = []error{err}
	return c
}

// Complete returns the next scripted response.
func (c *Completer) Complete(ctx context.Context, prompt, system string, maxTokens int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Prompts = append(c.Prompts, prompt)
	c.calls++

	if len(c.errs) > 0 {
		return "", c.errs[0]
	}
	if len(c.responses) == 0 {
		return "", fmt.Errorf("mock completer: no scripted responses")
	}

	idx := c.calls - 1
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	return c.responses[idx], nil
}

// Calls reports how many times Complete was invoked.
func (c *Completer) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}
