package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/becomeliminal/recall-go-sdk/core"
	"github.com/becomeliminal/recall-go-sdk/provider"
)

const (
	summarySystemPrompt = "You are a concise summarizer."
	summaryMaxTokens    = 300
)

// SummaryManager maintains the rolling per-conversation summary: a
// FIFO window of the last core.SummaryWindow messages plus an
// LLM-folded summary of everything seen so far.
type SummaryManager struct {
	completer provider.Completer
	store     SummaryStore
}

// NewSummaryManager creates a summary manager over the given store.
func NewSummaryManager(completer provider.Completer, store SummaryStore) *SummaryManager {
	return &SummaryManager{completer: completer, store: store}
}

// Advance folds a new message into the conversation's summary and
// persists the result. Persistence is best-effort: read and write
// failures are reported as degradations, never as errors, so a broken
// summary store cannot block consolidation. Only a completer failure
// is a hard error.
func (m *SummaryManager) Advance(ctx context.Context, conversationID, userID, message string) (core.Summary, []string, error) {
	var degradations []string

	prev, err := m.store.GetSummary(ctx, conversationID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		degradations = append(degradations, fmt.Sprintf("summary read failed: %v", err))
		prev = core.Summary{}
	}

	messages := append(prev.LastMessages, message)
	if len(messages) > core.SummaryWindow {
		messages = messages[len(messages)-core.SummaryWindow:]
	}

	folded, err := m.fold(ctx, prev.Summary, messages)
	if err != nil {
		return core.Summary{}, degradations, &core.ProviderError{Op: "summarize", Err: err}
	}

	next := core.Summary{
		ConversationID: conversationID,
		UserID:         userID,
		Summary:        folded,
		LastMessages:   messages,
		UpdatedAt:      time.Now().UTC(),
	}

	if err := m.store.PutSummary(ctx, next); err != nil {
		degradations = append(degradations, fmt.Sprintf("summary write failed: %v", err))
	}
	return next, degradations, nil
}

func (m *SummaryManager) fold(ctx context.Context, previous string, messages []string) (string, error) {
	prompt := fmt.Sprintf(
		"Previous summary:\n%s\n\nRecent messages:\n%s\n\nUpdate the summary:",
		previous,
		strings.Join(messages, "\n"),
	)
	folded, err := m.completer.Complete(ctx, prompt, summarySystemPrompt, summaryMaxTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(folded), nil
}

// InMemorySummaryStore keeps summaries in a map, keyed by conversation
// ID. Suitable for tests and single-process deployments.
type InMemorySummaryStore struct {
	mu        sync.RWMutex
	summaries map[string]core.Summary
}

// NewInMemorySummaryStore creates an empty in-memory summary store.
func NewInMemorySummaryStore() *InMemorySummaryStore {
	return &InMemorySummaryStore{summaries: make(map[string]core.Summary)}
}

// GetSummary returns the summary for a conversation.
func (s *InMemorySummaryStore) GetSummary(_ context.Context, conversationID string) (core.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.summaries[conversationID]
	if !ok {
		return core.Summary{}, core.ErrNotFound
	}
	return summary, nil
}

// PutSummary inserts or replaces the summary for its conversation.
func (s *InMemorySummaryStore) PutSummary(_ context.Context, summary core.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[summary.ConversationID] = summary
	return nil
}
