package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/becomeliminal/recall-go-sdk/core"
	"github.com/becomeliminal/recall-go-sdk/provider"
)

const (
	filterSystemPrompt      = "You are a relevance filter."
	filterMaxTokens         = 200
	filterContentTruncateAt = 800
)

// RelevanceFilter asks the model which retrieved memories actually
// help with a query. It is strictly fail-open: any completer or parse
// failure returns the input unfiltered. An explicit empty verdict
// ("[]") is trusted and yields an empty result, since "none relevant"
// is a legitimate judgment while a malformed response is an
// infrastructure problem.
type RelevanceFilter struct {
	completer provider.Completer
}

// NewRelevanceFilter creates a relevance filter.
func NewRelevanceFilter(completer provider.Completer) *RelevanceFilter {
	return &RelevanceFilter{completer: completer}
}

// Filter returns the subset of memories the model judges relevant to
// the query, preserving input order. An empty input returns
// immediately without a model call.
func (f *RelevanceFilter) Filter(ctx context.Context, query string, memories []core.ScoredMemory) []core.ScoredMemory {
	if len(memories) == 0 {
		return memories
	}

	answer, err := f.completer.Complete(ctx, f.prompt(query, memories), filterSystemPrompt, filterMaxTokens)
	if err != nil {
		log.Warn("relevance filter failed, returning unfiltered results", "err", err)
		return memories
	}

	ids, ok := parseIDArray(answer)
	if !ok {
		log.Warn("relevance filter returned unparseable verdict, returning unfiltered results")
		return memories
	}
	if len(ids) == 0 {
		return []core.ScoredMemory{}
	}

	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}

	filtered := make([]core.ScoredMemory, 0, len(memories))
	for _, m := range memories {
		if selected[m.Record.ID] {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func (f *RelevanceFilter) prompt(query string, memories []core.ScoredMemory) string {
	type candidate struct {
		ID      string `json:"id"`
		Content string `json:"content"`
	}
	candidates := make([]candidate, 0, len(memories))
	for _, m := range memories {
		content := m.Record.Content
		if runes := []rune(content); len(runes) > filterContentTruncateAt {
			content = string(runes[:filterContentTruncateAt])
		}
		candidates = append(candidates, candidate{ID: m.Record.ID, Content: content})
	}
	encoded, _ := json.Marshal(candidates)

	return fmt.Sprintf(
		"User query: %s\n\nCandidate memories (JSON array):\n%s\n\n"+
			"Return ONLY a JSON array (no prose) of the 'id' values of memories that might be helpful or relevant to address the user query (context expansion, answering, follow-up).\n"+
			"If none are relevant return []. Do not include duplicates or any explanation.",
		query, encoded,
	)
}

// parseIDArray extracts the bracketed segment of a model response and
// parses it as a JSON array of id strings. ok is false when no
// parseable array is present.
func parseIDArray(answer string) ([]string, bool) {
	start := strings.Index(answer, "[")
	end := strings.LastIndex(answer, "]")
	if start < 0 || end < start {
		return nil, false
	}

	var raw []any
	if err := json.Unmarshal([]byte(answer[start:end+1]), &raw); err != nil {
		return nil, false
	}

	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		ids = append(ids, fmt.Sprint(v))
	}
	return ids, true
}
