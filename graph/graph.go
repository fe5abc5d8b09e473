// Package graph mirrors consolidated memories into an external graph
// database. Mirroring is strictly best-effort: the engine surfaces
// sink failures as degradations, never as errors, so graph outages
// cannot block consolidation.
package graph

import "context"

// Metadata travels with a mirrored memory.
type Metadata struct {
	RecordID       string
	OwnerID        string
	ConversationID string
	Action         string
}

// Sink receives consolidated memories.
type Sink interface {
	// Ingest forwards one consolidated memory. Errors are advisory.
	Ingest(ctx context.Context, content string, meta Metadata) error

	// Close releases sink resources.
	Close(ctx context.Context) error
}

// NoopSink discards everything. The default when no graph database is
// configured.
type NoopSink struct{}

func (NoopSink) Ingest(ctx context.Context, content string, meta Metadata) error { return nil }

func (NoopSink) Close(ctx context.Context) error { return nil }
