package memory

import (
	"context"

	"github.com/becomeliminal/recall-go-sdk/core"
	"github.com/becomeliminal/recall-go-sdk/provider"
)

// DefaultTopK is how many neighbors retrieval considers when the
// caller does not say.
const DefaultTopK = 5

// Retriever embeds query text and returns scored nearest neighbors.
type Retriever struct {
	store    Store
	embedder provider.Embedder
}

// NewRetriever creates a retriever over the given store.
func NewRetriever(store Store, embedder provider.Embedder) *Retriever {
	return &Retriever{store: store, embedder: embedder}
}

// Retrieve returns up to topK memories nearest to the query text,
// highest similarity first. A topK of zero or less uses DefaultTopK.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]core.ScoredMemory, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &core.ProviderError{Op: "embed", Err: err}
	}
	return r.Nearest(ctx, embedding, topK)
}

// Nearest scores the topK store hits closest to the embedding. A topK
// of zero or less uses DefaultTopK.
func (r *Retriever) Nearest(ctx context.Context, embedding []float32, topK int) ([]core.ScoredMemory, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	hits, err := r.store.QueryNearest(ctx, embedding, topK)
	if err != nil {
		return nil, &core.StoreError{Op: "query", Err: err}
	}

	scored := make([]core.ScoredMemory, 0, len(hits))
	for _, hit := range hits {
		scored = append(scored, core.ScoredMemory{
			Record:     hit.Record,
			Similarity: Similarity(hit),
		})
	}
	return scored, nil
}
