package memory_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/becomeliminal/recall-go-sdk/core"
	"github.com/becomeliminal/recall-go-sdk/memory"
	"github.com/becomeliminal/recall-go-sdk/provider/mock"
)

func scored(id, content string) core.ScoredMemory {
	return core.ScoredMemory{Record: core.Record{ID: id, Content: content}, Similarity: 0.5}
}

func TestFilter_EmptyInputSkipsModel(t *testing.T) {
	completer := mock.NewCompleter()
	filter := memory.NewRelevanceFilter(completer)

	got := filter.Filter(context.Background(), "dark mode", nil)
	if len(got) != 0 {
		t.Errorf("Expected empty result, got %d", len(got))
	}
	if completer.Calls() != 0 {
		t.Errorf("Empty input must not invoke the model, got %d calls", completer.Calls())
	}
}

func TestFilter_SubsetPreservesOrder(t *testing.T) {
	completer := mock.NewCompleter(`["c", "a"]`)
	filter := memory.NewRelevanceFilter(completer)

	input := []core.ScoredMemory{
		scored("a", "User prefers dark mode"),
		scored("b", "User has two cats"),
		scored("c", "User dims screens at night"),
	}
	got := filter.Filter(context.Background(), "display preferences", input)
	if len(got) != 2 {
		t.Fatalf("Expected 2 memories, got %d", len(got))
	}
	// Input order wins over verdict order.
	if got[0].Record.ID != "a" || got[1].Record.ID != "c" {
		t.Errorf("Expected [a c], got [%s %s]", got[0].Record.ID, got[1].Record.ID)
	}
}

func TestFilter_ExplicitEmptyVerdictTrusted(t *testing.T) {
	filter := memory.NewRelevanceFilter(mock.NewCompleter("[]"))

	got := filter.Filter(context.Background(), "unrelated query", []core.ScoredMemory{scored("a", "content")})
	if len(got) != 0 {
		t.Errorf("Explicit [] should yield empty result, got %d", len(got))
	}
}

func TestFilter_MalformedResponseFailsOpen(t *testing.T) {
	cases := []struct {
		name     string
		response string
	}{
		{"no brackets", "these all look relevant to me"},
		{"broken json", `["a", "b"`},
		{"not an array", `{"ids": ["a"]}`},
	}

	input := []core.ScoredMemory{scored("a", "x"), scored("b", "y")}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			filter := memory.NewRelevanceFilter(mock.NewCompleter(tc.response))
			got := filter.Filter(context.Background(), "q", input)
			if len(got) != len(input) {
				t.Errorf("Malformed verdict should fail open, got %d of %d", len(got), len(input))
			}
		})
	}
}

func TestFilter_CompleterFailureFailsOpen(t *testing.T) {
	completer := mock.NewCompleter().FailWith(errors.New("model overloaded"))
	filter := memory.NewRelevanceFilter(completer)

	input := []core.ScoredMemory{scored("a", "x")}
	got := filter.Filter(context.Background(), "q", input)
	if len(got) != 1 || got[0].Record.ID != "a" {
		t.Errorf("Completer failure should fail open, got %v", got)
	}
}

func TestFilter_ProseAroundVerdictIsAccepted(t *testing.T) {
	completer := mock.NewCompleter(`Relevant ids: ["b"] as requested.`)
	filter := memory.NewRelevanceFilter(completer)

	input := []core.ScoredMemory{scored("a", "x"), scored("b", "y")}
	got := filter.Filter(context.Background(), "q", input)
	if len(got) != 1 || got[0].Record.ID != "b" {
		t.Errorf("Expected [b], got %v", got)
	}
}

func TestFilter_TruncatesLongContentInPrompt(t *testing.T) {
	completer := mock.NewCompleter("[]")
	filter := memory.NewRelevanceFilter(completer)

	long := strings.Repeat("x", 2000)
	filter.Filter(context.Background(), "q", []core.ScoredMemory{scored("a", long)})

	if len(completer.Prompts) != 1 {
		t.Fatalf("Expected one prompt, got %d", len(completer.Prompts))
	}
	if strings.Contains(completer.Prompts[0], strings.Repeat("x", 801)) {
		t.Error("Prompt should truncate memory content to 800 characters")
	}

	// The cut counts characters, never splitting a multi-byte rune.
	filter.Filter(context.Background(), "q", []core.ScoredMemory{scored("b", strings.Repeat("é", 2000))})
	if len(completer.Prompts) != 2 {
		t.Fatalf("Expected two prompts, got %d", len(completer.Prompts))
	}
	if !utf8.ValidString(completer.Prompts[1]) {
		t.Error("Truncation split a rune mid-sequence")
	}
	if !strings.Contains(completer.Prompts[1], strings.Repeat("é", 800)) {
		t.Error("Expected 800 whole characters to survive truncation")
	}
}
