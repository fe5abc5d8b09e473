// Package chromem adapts chromem-go, a pure Go embedded vector
// database, to the memory.Store interface. Everything lives in one
// in-process collection; suitable for tests and single-node deployments.
package chromem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	chromem "github.com/philippgille/chromem-go"

	"github.com/becomeliminal/recall-go-sdk/core"
)

const collectionName = "memories"

// Store wraps a chromem-go collection.
type Store struct {
	db  *chromem.DB
	col *chromem.Collection
	mu  sync.Mutex
}

// New creates an in-memory chromem store.
func New() (*Store, error) {
	db := chromem.NewDB()

	// No embedding func: callers always supply embeddings. Default
	// distance is cosine.
	col, err := db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Store{db: db, col: col}, nil
}

// Create inserts a record.
func (s *Store) Create(ctx context.Context, rec core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(ctx, rec)
}

// Upsert inserts or replaces the record with the same ID. chromem
// documents are keyed by ID, so adding again overwrites in place.
func (s *Store) Upsert(ctx context.Context, rec core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(ctx, rec)
}

func (s *Store) put(ctx context.Context, rec core.Record) error {
	doc := chromem.Document{
		ID:        rec.ID,
		Content:   rec.Content,
		Embedding: rec.Embedding,
		Metadata:  encodeMetadata(rec),
	}
	if err := s.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *Store) Get(ctx context.Context, id string) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.col.GetByID(ctx, id)
	if err != nil {
		return core.Record{}, core.ErrNotFound
	}
	return recordFromDocument(doc), nil
}

// Delete removes a record by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.col.GetByID(ctx, id); err != nil {
		return core.ErrNotFound
	}
	if err := s.col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// QueryNearest returns up to k nearest records. chromem reports cosine
// similarity, converted here to distance = 1 - similarity so nearer
// means smaller.
func (s *Store) QueryNearest(ctx context.Context, embedding []float32, k int) ([]core.SearchHit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// chromem rejects nResults larger than the collection.
	n := k
	if count := s.col.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil, nil
	}

	results, err := s.col.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}
	log.Debug("chromem query", "requested", k, "returned", len(results))

	hits := make([]core.SearchHit, 0, len(results))
	for _, result := range results {
		distance := 1.0 - float64(result.Similarity)
		hits = append(hits, core.SearchHit{
			Record: core.Record{
				ID:             result.ID,
				Content:        result.Content,
				Embedding:      result.Embedding,
				OwnerID:        result.Metadata["owner_id"],
				ConversationID: result.Metadata["conversation_id"],
				CreatedAt:      parseTime(result.Metadata["created_at"]),
				UpdatedAt:      parseTime(result.Metadata["updated_at"]),
			},
			Distance: &distance,
		})
	}
	return hits, nil
}

// Close releases resources. chromem keeps everything in memory, so
// there is nothing to release.
func (s *Store) Close() error {
	return nil
}

func encodeMetadata(rec core.Record) map[string]string {
	meta := map[string]string{
		"created_at": rec.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": rec.UpdatedAt.Format(time.RFC3339Nano),
	}
	if rec.OwnerID != "" {
		meta["owner_id"] = rec.OwnerID
	}
	if rec.ConversationID != "" {
		meta["conversation_id"] = rec.ConversationID
	}
	return meta
}

func recordFromDocument(doc chromem.Document) core.Record {
	return core.Record{
		ID:             doc.ID,
		Content:        doc.Content,
		Embedding:      doc.Embedding,
		OwnerID:        doc.Metadata["owner_id"],
		ConversationID: doc.Metadata["conversation_id"],
		CreatedAt:      parseTime(doc.Metadata["created_at"]),
		UpdatedAt:      parseTime(doc.Metadata["updated_at"]),
	}
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
