// Package memory implements the consolidation pipeline: candidate
// generation, neighbor scoring, three-band decisions, and the writer
// that keeps the memory store deduplicated.
package memory

import (
	"context"

	"github.com/becomeliminal/recall-go-sdk/core"
)

// Store is the vector storage backend interface.
// Implementations: chromem.Store (local SDK), qdrant.Store (production).
//
// QueryNearest reports distances, where smaller means closer. Adapters
// over cosine-similarity engines convert with distance = 1 - similarity.
type Store interface {
	// Create inserts a new record. The record's ID and embedding must
	// be set before calling Create.
	Create(ctx context.Context, rec core.Record) error

	// Upsert replaces the record with the same ID, or inserts it.
	Upsert(ctx context.Context, rec core.Record) error

	// Get retrieves a record by ID. Returns core.ErrNotFound when the
	// record does not exist.
	Get(ctx context.Context, id string) (core.Record, error)

	// Delete removes a record permanently. Returns core.ErrNotFound
	// when the record does not exist.
	Delete(ctx context.Context, id string) error

	// QueryNearest returns up to k records closest to the embedding,
	// ordered nearest first.
	QueryNearest(ctx context.Context, embedding []float32, k int) ([]core.SearchHit, error)

	// Close releases resources.
	Close() error
}

// SummaryStore persists per-conversation rolling summaries.
// Implementations: InMemorySummaryStore (local SDK), or any document
// store keyed by conversation ID.
type SummaryStore interface {
	// GetSummary returns the summary for a conversation. Returns
	// core.ErrNotFound when no summary exists yet.
	GetSummary(ctx context.Context, conversationID string) (core.Summary, error)

	// PutSummary inserts or replaces the summary for its conversation.
	PutSummary(ctx context.Context, s core.Summary) error
}
