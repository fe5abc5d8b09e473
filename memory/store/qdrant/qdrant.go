// Package qdrant adapts a Qdrant collection, reached over its REST
// API, to the memory.Store interface. Meant for deployments where the
// memory corpus outlives the process.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/becomeliminal/recall-go-sdk/core"
)

// Store talks to one Qdrant collection.
type Store struct {
	endpoint   string // e.g. http://localhost:6333
	collection string
	httpClient *http.Client
}

// New returns a Store with sane defaults.
func New(endpoint, collection string) *Store {
	return &Store{
		endpoint:   endpoint,
		collection: collection,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type pointPayload struct {
	Content        string `json:"content"`
	OwnerID        string `json:"owner_id,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// Create upserts the record as a point. Qdrant point upserts are
// idempotent on ID, so Create and Upsert share one code path.
func (s *Store) Create(ctx context.Context, rec core.Record) error {
	return s.Upsert(ctx, rec)
}

// Upsert inserts or replaces the point with the record's ID.
func (s *Store) Upsert(ctx context.Context, rec core.Record) error {
	body := map[string]any{
		"points": []map[string]any{{
			"id":     rec.ID,
			"vector": rec.Embedding,
			"payload": pointPayload{
				Content:        rec.Content,
				OwnerID:        rec.OwnerID,
				ConversationID: rec.ConversationID,
				CreatedAt:      rec.CreatedAt.Format(time.RFC3339Nano),
				UpdatedAt:      rec.UpdatedAt.Format(time.RFC3339Nano),
			},
		}},
	}

	resp, err := s.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", s.collection), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant: upsert status %s", resp.Status)
	}
	return nil
}

// Get retrieves a point by ID including its payload.
func (s *Store) Get(ctx context.Context, id string) (core.Record, error) {
	resp, err := s.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s/points/%s", s.collection, id), nil)
	if err != nil {
		return core.Record{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return core.Record{}, core.ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return core.Record{}, fmt.Errorf("qdrant: get status %s", resp.Status)
	}

	var out struct {
		Result struct {
			ID      string       `json:"id"`
			Payload pointPayload `json:"payload"`
			Vector  []float32    `json:"vector"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return core.Record{}, fmt.Errorf("qdrant: decode get response: %w", err)
	}
	return recordFromPayload(out.Result.ID, out.Result.Payload, out.Result.Vector), nil
}

// Delete removes a point by ID. Qdrant's delete endpoint succeeds for
// missing points, so existence is checked first to honor the
// not-found contract.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	body := map[string]any{"points": []string{id}}
	resp, err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/delete?wait=true", s.collection), body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant: delete status %s", resp.Status)
	}
	return nil
}

// QueryNearest performs a vector search. Qdrant reports a similarity
// score for cosine collections, converted here to
// distance = 1 - score.
func (s *Store) QueryNearest(ctx context.Context, embedding []float32, k int) ([]core.SearchHit, error) {
	body := map[string]any{
		"vector":       embedding,
		"limit":        k,
		"with_payload": true,
	}
	resp, err := s.do(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", s.collection), body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant: search status %s", resp.Status)
	}

	var out struct {
		Result []struct {
			ID      string       `json:"id"`
			Score   *float64     `json:"score"`
			Payload pointPayload `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("qdrant: decode search response: %w", err)
	}

	hits := make([]core.SearchHit, 0, len(out.Result))
	for _, r := range out.Result {
		hit := core.SearchHit{Record: recordFromPayload(r.ID, r.Payload, nil)}
		if r.Score != nil {
			distance := 1.0 - *r.Score
			hit.Distance = &distance
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// Close releases resources.
func (s *Store) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func (s *Store) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("qdrant: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.endpoint+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.httpClient.Do(req)
}

func recordFromPayload(id string, payload pointPayload, vector []float32) core.Record {
	createdAt, _ := time.Parse(time.RFC3339Nano, payload.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, payload.UpdatedAt)
	return core.Record{
		ID:             id,
		Content:        payload.Content,
		Embedding:      vector,
		OwnerID:        payload.OwnerID,
		ConversationID: payload.ConversationID,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}
}
