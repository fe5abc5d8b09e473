package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/becomeliminal/recall-go-sdk/core"
	"github.com/becomeliminal/recall-go-sdk/provider"
)

const (
	mergeSystemPrompt = "You merge memories into better ones."
	mergeMaxTokens    = 300
)

// Candidate is a normalized, embedded candidate memory plus its
// conversation context, ready for the writer.
type Candidate struct {
	Content        string
	Embedding      []float32
	OwnerID        string
	ConversationID string
}

// Writer applies a decision to the store. It owns record identity:
// ADD and the replacement half of DELETE mint fresh UUIDs, UPDATE
// merges in place and keeps the target's ID and creation time.
type Writer struct {
	store     Store
	completer provider.Completer
	embedder  provider.Embedder
}

// NewWriter creates a writer over the given store.
func NewWriter(store Store, completer provider.Completer, embedder provider.Embedder) *Writer {
	return &Writer{store: store, completer: completer, embedder: embedder}
}

// Apply executes the decision. It returns the ID of the record that
// was written (or kept, for NO-OP).
func (w *Writer) Apply(ctx context.Context, decision core.Decision, cand Candidate) (string, error) {
	switch decision.Action {
	case core.ActionAdd:
		return w.add(ctx, cand)
	case core.ActionUpdate:
		return decision.TargetID, w.update(ctx, decision.TargetID, cand)
	case core.ActionDelete:
		return w.replace(ctx, decision.TargetID, cand)
	case core.ActionNoop:
		return decision.TargetID, nil
	default:
		return "", &core.ValidationError{Field: "action", Reason: fmt.Sprintf("unknown action %q", decision.Action)}
	}
}

func (w *Writer) add(ctx context.Context, cand Candidate) (string, error) {
	rec := w.newRecord(cand)
	if err := w.store.Create(ctx, rec); err != nil {
		return "", &core.StoreError{Op: "create", Err: err}
	}
	return rec.ID, nil
}

// update merges the candidate into the existing record with the model,
// re-embeds the merged text, and writes it back under the same ID. A
// failed re-embed aborts the update so the stored embedding never
// drifts from the stored content.
func (w *Writer) update(ctx context.Context, targetID string, cand Candidate) error {
	existing, err := w.store.Get(ctx, targetID)
	if err != nil {
		return &core.StoreError{Op: "get", Err: err}
	}

	prompt := fmt.Sprintf(
		"Existing memory:\n%s\n\nCandidate memory:\n%s\n\nMerge them into one improved memory:",
		existing.Content, cand.Content,
	)
	merged, err := w.completer.Complete(ctx, prompt, mergeSystemPrompt, mergeMaxTokens)
	if err != nil {
		return &core.ProviderError{Op: "merge", Err: err}
	}
	merged = Normalize(merged)
	if merged == "" {
		// An all-scaffolding merge would blank the record; keep what
		// is already stored.
		merged = existing.Content
	}

	embedding, err := w.embedder.Embed(ctx, merged)
	if err != nil {
		return &core.ProviderError{Op: "re-embed", Err: err}
	}

	existing.Content = merged
	existing.Embedding = embedding
	existing.UpdatedAt = time.Now().UTC()
	if err := w.store.Upsert(ctx, existing); err != nil {
		return &core.StoreError{Op: "upsert", Err: err}
	}
	return nil
}

// replace removes the contradicted record and stores the candidate as
// a fresh one.
func (w *Writer) replace(ctx context.Context, targetID string, cand Candidate) (string, error) {
	if err := w.store.Delete(ctx, targetID); err != nil {
		return "", &core.StoreError{Op: "delete", Err: err}
	}
	return w.add(ctx, cand)
}

func (w *Writer) newRecord(cand Candidate) core.Record {
	now := time.Now().UTC()
	return core.Record{
		ID:             uuid.NewString(),
		Content:        cand.Content,
		Embedding:      cand.Embedding,
		OwnerID:        cand.OwnerID,
		ConversationID: cand.ConversationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
