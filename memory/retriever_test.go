package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/becomeliminal/recall-go-sdk/core"
	"github.com/becomeliminal/recall-go-sdk/memory"
	"github.com/becomeliminal/recall-go-sdk/provider/mock"
)

func TestRetriever_DefaultTopK(t *testing.T) {
	store := newFakeStore()
	retriever := memory.NewRetriever(store, mock.NewEmbedder(8))

	if _, err := retriever.Retrieve(context.Background(), "dark mode", 0); err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if store.lastQueryK != memory.DefaultTopK {
		t.Errorf("Expected default top-k %d, got %d", memory.DefaultTopK, store.lastQueryK)
	}

	if _, err := retriever.Retrieve(context.Background(), "dark mode", 3); err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if store.lastQueryK != 3 {
		t.Errorf("Expected top-k 3, got %d", store.lastQueryK)
	}

	// Nearest clamps too, so embedding-first callers get the same
	// default.
	if _, err := retriever.Nearest(context.Background(), []float32{1, 0}, -1); err != nil {
		t.Fatalf("Nearest failed: %v", err)
	}
	if store.lastQueryK != memory.DefaultTopK {
		t.Errorf("Expected default top-k %d, got %d", memory.DefaultTopK, store.lastQueryK)
	}
}

func TestRetriever_ScoresHits(t *testing.T) {
	near, far := 0.0, 1.0
	store := newFakeStore()
	store.hits = []core.SearchHit{
		{Record: core.Record{ID: "a", Content: "dark mode"}, Distance: &near},
		{Record: core.Record{ID: "b", Content: "two cats"}, Distance: &far},
		{Record: core.Record{ID: "c", Content: "no distance"}},
	}
	retriever := memory.NewRetriever(store, mock.NewEmbedder(8))

	got, err := retriever.Retrieve(context.Background(), "dark mode", 5)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(got))
	}
	if got[0].Similarity != 1.0 {
		t.Errorf("Zero distance should score 1.0, got %v", got[0].Similarity)
	}
	if got[1].Similarity != 0.5 {
		t.Errorf("Unit distance should score 0.5, got %v", got[1].Similarity)
	}
	if got[2].Similarity != 0.0 {
		t.Errorf("Missing distance should score 0.0, got %v", got[2].Similarity)
	}
}

func TestRetriever_StoreFailure(t *testing.T) {
	store := newFakeStore()
	store.queryErr = errors.New("collection unavailable")
	retriever := memory.NewRetriever(store, mock.NewEmbedder(8))

	_, err := retriever.Retrieve(context.Background(), "q", 5)
	if err == nil {
		t.Fatal("Expected error when the store query fails")
	}
	var storeErr *core.StoreError
	if !errors.As(err, &storeErr) {
		t.Errorf("Expected StoreError, got %T: %v", err, err)
	}
}
