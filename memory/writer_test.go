package memory_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/becomeliminal/recall-go-sdk/core"
	"github.com/becomeliminal/recall-go-sdk/memory"
	"github.com/becomeliminal/recall-go-sdk/provider/mock"
)

// fakeStore is an in-memory memory.Store with scripted query results
// and optional error injection.
type fakeStore struct {
	records map[string]core.Record
	hits    []core.SearchHit

	queryErr  error
	createErr error

	lastQueryK int
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]core.Record)}
}

func (s *fakeStore) Create(ctx context.Context, rec core.Record) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *fakeStore) Upsert(ctx context.Context, rec core.Record) error {
	s.records[rec.ID] = rec
	return nil
}

func (s *fakeStore) Get(ctx context.Context, id string) (core.Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return core.Record{}, core.ErrNotFound
	}
	return rec, nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.records[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *fakeStore) QueryNearest(ctx context.Context, embedding []float32, k int) ([]core.SearchHit, error) {
	s.lastQueryK = k
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if len(s.hits) > k {
		return s.hits[:k], nil
	}
	return s.hits, nil
}

func (s *fakeStore) Close() error { return nil }

// failingEmbedder rejects every call to exercise re-embed aborts.
type failingEmbedder struct{}

func (failingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embedding service down")
}

func (failingEmbedder) Dimensions() int { return 384 }

func testCandidate() memory.Candidate {
	return memory.Candidate{
		Content:        "User prefers dark mode",
		Embedding:      []float32{0.1, 0.2, 0.3},
		OwnerID:        "user1",
		ConversationID: "conv1",
	}
}

func TestWriter_Add(t *testing.T) {
	store := newFakeStore()
	writer := memory.NewWriter(store, mock.NewCompleter(), mock.NewEmbedder(3))

	id, err := writer.Apply(context.Background(), core.Decision{Action: core.ActionAdd}, testCandidate())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if id == "" {
		t.Fatal("ADD should mint a record ID")
	}

	rec, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Record was not created: %v", err)
	}
	if rec.Content != "User prefers dark mode" {
		t.Errorf("Unexpected content: %q", rec.Content)
	}
	if rec.OwnerID != "user1" || rec.ConversationID != "conv1" {
		t.Errorf("Ownership not carried over: %q/%q", rec.OwnerID, rec.ConversationID)
	}
	if rec.CreatedAt.IsZero() || !rec.CreatedAt.Equal(rec.UpdatedAt) {
		t.Errorf("Fresh record should have CreatedAt == UpdatedAt, got %v / %v", rec.CreatedAt, rec.UpdatedAt)
	}
}

func TestWriter_UpdateMergesInPlace(t *testing.T) {
	store := newFakeStore()
	created := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	store.records["m1"] = core.Record{
		ID:        "m1",
		Content:   "User likes dark themes",
		Embedding: []float32{1, 0, 0},
		CreatedAt: created,
		UpdatedAt: created,
	}

	completer := mock.NewCompleter("User prefers dark mode across all apps")
	embedder := mock.NewEmbedder(3)
	writer := memory.NewWriter(store, completer, embedder)

	id, err := writer.Apply(context.Background(), core.Decision{Action: core.ActionUpdate, TargetID: "m1"}, testCandidate())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if id != "m1" {
		t.Errorf("UPDATE must keep the target ID, got %q", id)
	}

	rec := store.records["m1"]
	if rec.Content != "User prefers dark mode across all apps" {
		t.Errorf("Expected merged content, got %q", rec.Content)
	}
	if !rec.CreatedAt.Equal(created) {
		t.Errorf("UPDATE must preserve CreatedAt, got %v", rec.CreatedAt)
	}
	if !rec.UpdatedAt.After(created) {
		t.Errorf("UPDATE must refresh UpdatedAt, got %v", rec.UpdatedAt)
	}

	// The stored embedding must be the embedding of the merged text.
	want, _ := embedder.Embed(context.Background(), rec.Content)
	if len(rec.Embedding) != len(want) {
		t.Fatalf("Embedding length mismatch: %d vs %d", len(rec.Embedding), len(want))
	}
	for i := range want {
		if rec.Embedding[i] != want[i] {
			t.Fatalf("Stored embedding does not match merged content at index %d", i)
		}
	}

	if len(completer.Prompts) != 1 || !strings.Contains(completer.Prompts[0], "Merge them into one improved memory") {
		t.Errorf("Expected a merge prompt, got %v", completer.Prompts)
	}
}

func TestWriter_UpdateKeepsContentOnScaffoldingMerge(t *testing.T) {
	store := newFakeStore()
	store.records["m1"] = core.Record{
		ID:        "m1",
		Content:   "User likes dark themes",
		Embedding: []float32{1, 0, 0},
	}

	// The merge response is pure scaffolding, which normalizes to
	// nothing; the existing content must survive.
	writer := memory.NewWriter(store, mock.NewCompleter("**Memory Entry:**"), mock.NewEmbedder(3))

	id, err := writer.Apply(context.Background(), core.Decision{Action: core.ActionUpdate, TargetID: "m1"}, testCandidate())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if id != "m1" {
		t.Errorf("UPDATE must keep the target ID, got %q", id)
	}
	if got := store.records["m1"].Content; got != "User likes dark themes" {
		t.Errorf("Expected existing content to be kept, got %q", got)
	}
}

func TestWriter_UpdateAbortsWhenReembedFails(t *testing.T) {
	store := newFakeStore()
	original := core.Record{
		ID:        "m1",
		Content:   "User likes dark themes",
		Embedding: []float32{1, 0, 0},
	}
	store.records["m1"] = original

	writer := memory.NewWriter(store, mock.NewCompleter("merged text"), failingEmbedder{})

	_, err := writer.Apply(context.Background(), core.Decision{Action: core.ActionUpdate, TargetID: "m1"}, testCandidate())
	if err == nil {
		t.Fatal("Expected error when re-embedding fails")
	}

	rec := store.records["m1"]
	if rec.Content != original.Content {
		t.Errorf("Aborted UPDATE must not change content, got %q", rec.Content)
	}
	if rec.Embedding[0] != 1 {
		t.Errorf("Aborted UPDATE must not change embedding")
	}
}

func TestWriter_DeleteReplaces(t *testing.T) {
	store := newFakeStore()
	store.records["old"] = core.Record{ID: "old", Content: "User hates dark mode"}

	writer := memory.NewWriter(store, mock.NewCompleter(), mock.NewEmbedder(3))

	id, err := writer.Apply(context.Background(), core.Decision{Action: core.ActionDelete, TargetID: "old"}, testCandidate())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if id == "old" || id == "" {
		t.Fatalf("DELETE must replace under a fresh ID, got %q", id)
	}

	if _, err := store.Get(context.Background(), "old"); !errors.Is(err, core.ErrNotFound) {
		t.Error("Contradicted record should be gone")
	}
	rec, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Replacement record missing: %v", err)
	}
	if rec.Content != "User prefers dark mode" {
		t.Errorf("Replacement should hold candidate content, got %q", rec.Content)
	}
}

func TestWriter_NoopWritesNothing(t *testing.T) {
	store := newFakeStore()
	store.records["m1"] = core.Record{ID: "m1", Content: "User prefers dark mode"}

	writer := memory.NewWriter(store, mock.NewCompleter(), mock.NewEmbedder(3))

	id, err := writer.Apply(context.Background(), core.Decision{Action: core.ActionNoop, TargetID: "m1"}, testCandidate())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if id != "m1" {
		t.Errorf("NO-OP should report the kept record, got %q", id)
	}
	if len(store.records) != 1 {
		t.Errorf("NO-OP must not mutate the store, have %d records", len(store.records))
	}
}

func TestWriter_StoreFailureIsStoreError(t *testing.T) {
	store := newFakeStore()
	store.createErr = errors.New("disk full")
	writer := memory.NewWriter(store, mock.NewCompleter(), mock.NewEmbedder(3))

	_, err := writer.Apply(context.Background(), core.Decision{Action: core.ActionAdd}, testCandidate())
	if err == nil {
		t.Fatal("Expected error when the store rejects the write")
	}
	var storeErr *core.StoreError
	if !errors.As(err, &storeErr) {
		t.Errorf("Expected StoreError, got %T: %v", err, err)
	}
}
