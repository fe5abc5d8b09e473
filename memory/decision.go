package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/becomeliminal/recall-go-sdk/core"
	"github.com/becomeliminal/recall-go-sdk/provider"
)

const (
	decisionSystemPrompt = "You are a precise memory manager."
	decisionMaxTokens    = 50
)

// Thresholds carve the similarity range into decision bands.
type Thresholds struct {
	// AddBelow: a best neighbor scoring under this is unrelated, so
	// the candidate is added as a new memory.
	AddBelow float64

	// UpdateCeiling is recorded for inspection but does not branch the
	// decision: everything between AddBelow and NoopAtOrAbove is
	// arbitrated by the model.
	UpdateCeiling float64

	// NoopAtOrAbove: a best neighbor scoring at or above this already
	// covers the candidate, so nothing is written.
	NoopAtOrAbove float64
}

// DefaultThresholds returns the standard decision bands.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AddBelow:      0.45,
		UpdateCeiling: 0.65,
		NoopAtOrAbove: 0.85,
	}
}

// Decider maps a candidate memory and its scored neighbors to one of
// ADD, UPDATE, DELETE, or NO-OP.
type Decider struct {
	completer  provider.Completer
	thresholds Thresholds
}

// NewDecider creates a decider with the given thresholds.
func NewDecider(completer provider.Completer, thresholds Thresholds) *Decider {
	return &Decider{completer: completer, thresholds: thresholds}
}

// Decide picks an action from the candidate's best neighbor.
// No neighbors means ADD. A best score under AddBelow means ADD, at or
// above NoopAtOrAbove means NO-OP. The middle band asks the model
// whether the candidate refines the existing memory (UPDATE) or
// contradicts it (DELETE, so the writer can replace it). An answer
// that is neither reads as UPDATE.
func (d *Decider) Decide(ctx context.Context, candidate string, neighbors []core.Neighbor) (core.Decision, error) {
	candidate = Normalize(candidate)

	if len(neighbors) == 0 {
		return core.Decision{Action: core.ActionAdd}, nil
	}

	best := neighbors[0]
	for _, n := range neighbors[1:] {
		if n.Similarity > best.Similarity {
			best = n
		}
	}

	switch {
	case best.Similarity < d.thresholds.AddBelow:
		return core.Decision{Action: core.ActionAdd}, nil
	case best.Similarity >= d.thresholds.NoopAtOrAbove:
		return core.Decision{Action: core.ActionNoop, TargetID: best.Record.ID}, nil
	}

	prompt := fmt.Sprintf(
		"Existing memory:\n%s\n\nCandidate memory:\n%s\n\nDecide ONE action:\n- UPDATE (merge into existing memory)\n- CONTRADICTS_EXISTING (new info contradicts existing, delete old memory)",
		best.Record.Content, candidate,
	)
	answer, err := d.completer.Complete(ctx, prompt, decisionSystemPrompt, decisionMaxTokens)
	if err != nil {
		return core.Decision{}, &core.ProviderError{Op: "decide", Err: err}
	}

	switch strings.ToUpper(strings.TrimSpace(answer)) {
	case "DELETE", "CONTRADICTS_EXISTING":
		return core.Decision{Action: core.ActionDelete, TargetID: best.Record.ID}, nil
	default:
		return core.Decision{Action: core.ActionUpdate, TargetID: best.Record.ID}, nil
	}
}
