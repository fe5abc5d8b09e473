package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/becomeliminal/recall-go-sdk/provider"
)

const (
	candidateSystemPrompt = "You are a memory creator."
	candidateMaxTokens    = 200
)

// CandidateGenerator turns a message plus its conversation summary
// into a normalized, embedded candidate memory.
type CandidateGenerator struct {
	completer provider.Completer
	embedder  provider.Embedder
}

// NewCandidateGenerator creates a candidate generator.
func NewCandidateGenerator(completer provider.Completer, embedder provider.Embedder) *CandidateGenerator {
	return &CandidateGenerator{completer: completer, embedder: embedder}
}

// Generate produces the candidate memory text and its embedding.
// The text is normalized before embedding so that stored content and
// query vectors never carry formatting scaffolding.
func (g *CandidateGenerator) Generate(ctx context.Context, summary, message string) (string, []float32, error) {
	prompt := fmt.Sprintf(
		"Based on:\nSummary: %s\nNew message: %s\n\nWrite a short candidate memory:",
		summary, message,
	)
	raw, err := g.completer.Complete(ctx, prompt, candidateSystemPrompt, candidateMaxTokens)
	if err != nil {
		return "", nil, fmt.Errorf("generate candidate: %w", err)
	}

	candidate := Normalize(raw)
	if candidate == "" {
		// An all-scaffolding response carries no content worth keeping;
		// fall back to the message itself.
		candidate = strings.TrimSpace(message)
	}

	embedding, err := g.embedder.Embed(ctx, candidate)
	if err != nil {
		return "", nil, fmt.Errorf("embed candidate: %w", err)
	}
	return candidate, embedding, nil
}
