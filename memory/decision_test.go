package memory_test

import (
	"context"
	"testing"

	"github.com/becomeliminal/recall-go-sdk/core"
	"github.com/becomeliminal/recall-go-sdk/memory"
	"github.com/becomeliminal/recall-go-sdk/provider/mock"
)

func neighbor(id string, similarity float64) core.Neighbor {
	return core.Neighbor{
		Record:     core.Record{ID: id, Content: "existing memory about " + id},
		Similarity: similarity,
	}
}

func TestDecide_NoNeighborsIsAdd(t *testing.T) {
	completer := mock.NewCompleter()
	decider := memory.NewDecider(completer, memory.DefaultThresholds())

	decision, err := decider.Decide(context.Background(), "user likes jazz", nil)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if decision.Action != core.ActionAdd {
		t.Errorf("Expected ADD, got %s", decision.Action)
	}
	if decision.TargetID != "" {
		t.Errorf("ADD should not carry a target, got %q", decision.TargetID)
	}
	if completer.Calls() != 0 {
		t.Errorf("Empty neighbor set should not consult the model, got %d calls", completer.Calls())
	}
}

func TestDecide_ThresholdBands(t *testing.T) {
	cases := []struct {
		name       string
		similarity float64
		want       core.Action
		wantTarget string
		wantCalls  int
	}{
		{"below add threshold", 0.30, core.ActionAdd, "", 0},
		{"just under add threshold", 0.4499, core.ActionAdd, "", 0},
		{"at noop threshold", 0.85, core.ActionNoop, "m1", 0},
		{"above noop threshold", 0.97, core.ActionNoop, "m1", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			completer := mock.NewCompleter("UPDATE")
			decider := memory.NewDecider(completer, memory.DefaultThresholds())

			decision, err := decider.Decide(context.Background(), "candidate", []core.Neighbor{neighbor("m1", tc.similarity)})
			if err != nil {
				t.Fatalf("Decide failed: %v", err)
			}
			if decision.Action != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, decision.Action)
			}
			if decision.TargetID != tc.wantTarget {
				t.Errorf("Expected target %q, got %q", tc.wantTarget, decision.TargetID)
			}
			if completer.Calls() != tc.wantCalls {
				t.Errorf("Expected %d model calls, got %d", tc.wantCalls, completer.Calls())
			}
		})
	}
}

func TestDecide_AmbiguousBandAsksModel(t *testing.T) {
	cases := []struct {
		name     string
		response string
		want     core.Action
	}{
		{"model says update", "UPDATE", core.ActionUpdate},
		{"model says contradiction", "CONTRADICTS_EXISTING", core.ActionDelete},
		{"model says delete", "delete", core.ActionDelete},
		{"whitespace and case ignored", "  contradicts_existing \n", core.ActionDelete},
		{"anything else defaults to update", "I think these are compatible", core.ActionUpdate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			completer := mock.NewCompleter(tc.response)
			decider := memory.NewDecider(completer, memory.DefaultThresholds())

			decision, err := decider.Decide(context.Background(), "candidate", []core.Neighbor{neighbor("m1", 0.60)})
			if err != nil {
				t.Fatalf("Decide failed: %v", err)
			}
			if decision.Action != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, decision.Action)
			}
			if decision.TargetID != "m1" {
				t.Errorf("Expected target m1, got %q", decision.TargetID)
			}
			if completer.Calls() != 1 {
				t.Errorf("Expected exactly one model call, got %d", completer.Calls())
			}
		})
	}
}

func TestDecide_PicksBestNeighbor(t *testing.T) {
	completer := mock.NewCompleter()
	decider := memory.NewDecider(completer, memory.DefaultThresholds())

	neighbors := []core.Neighbor{
		neighbor("low", 0.20),
		neighbor("high", 0.90),
		neighbor("mid", 0.60),
	}
	decision, err := decider.Decide(context.Background(), "candidate", neighbors)
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	if decision.Action != core.ActionNoop || decision.TargetID != "high" {
		t.Errorf("Expected NO-OP against high, got %s/%q", decision.Action, decision.TargetID)
	}
}
