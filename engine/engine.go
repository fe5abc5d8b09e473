// Package engine wires the consolidation pipeline end to end: summary
// fold, candidate generation, neighbor retrieval, decision, store
// write, and the best-effort graph mirror.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/becomeliminal/recall-go-sdk/core"
	"github.com/becomeliminal/recall-go-sdk/graph"
	"github.com/becomeliminal/recall-go-sdk/memory"
	"github.com/becomeliminal/recall-go-sdk/provider"
)

// Engine consolidates incoming messages into a deduplicated memory
// store and answers relevance-filtered queries over it.
//
// All collaborators are injected at construction; the engine holds no
// mutable state of its own, so one instance serves concurrent requests.
type Engine struct {
	store      memory.Store
	summaries  memory.SummaryStore
	completer  provider.Completer
	embedder   provider.Embedder
	sink       graph.Sink
	thresholds memory.Thresholds
	topK       int
	logger     *log.Logger

	summaryMgr *memory.SummaryManager
	candidates *memory.CandidateGenerator
	decider    *memory.Decider
	writer     *memory.Writer
	retriever  *memory.Retriever
	filter     *memory.RelevanceFilter
}

// Option configures the engine.
type Option func(*Engine)

// WithSummaryStore sets the summary store. Defaults to an in-memory store.
func WithSummaryStore(s memory.SummaryStore) Option {
	return func(e *Engine) {
		e.summaries = s
	}
}

// WithGraphSink sets the graph mirror. Defaults to a no-op sink.
func WithGraphSink(s graph.Sink) Option {
	return func(e *Engine) {
		e.sink = s
	}
}

// WithThresholds overrides the decision bands.
func WithThresholds(t memory.Thresholds) Option {
	return func(e *Engine) {
		e.thresholds = t
	}
}

// WithTopK sets how many neighbors consolidation considers.
func WithTopK(k int) Option {
	return func(e *Engine) {
		e.topK = k
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine over the given store and providers.
func New(store memory.Store, completer provider.Completer, embedder provider.Embedder, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("engine: store is required")
	}
	if completer == nil {
		return nil, fmt.Errorf("engine: completer is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("engine: embedder is required")
	}

	e := &Engine{
		store:      store,
		completer:  completer,
		embedder:   embedder,
		summaries:  memory.NewInMemorySummaryStore(),
		sink:       graph.NoopSink{},
		thresholds: memory.DefaultThresholds(),
		topK:       memory.DefaultTopK,
		logger:     log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.summaryMgr = memory.NewSummaryManager(e.completer, e.summaries)
	e.candidates = memory.NewCandidateGenerator(e.completer, e.embedder)
	e.decider = memory.NewDecider(e.completer, e.thresholds)
	e.writer = memory.NewWriter(e.store, e.completer, e.embedder)
	e.retriever = memory.NewRetriever(e.store, e.embedder)
	e.filter = memory.NewRelevanceFilter(e.completer)
	return e, nil
}

// ProcessRequest is one incoming conversation message.
type ProcessRequest struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	Message        string `json:"message"`
}

// ProcessMessage runs the full consolidation pipeline for one message
// and returns what happened. Best-effort steps (summary persistence,
// graph mirror) report their failures on the result instead of
// failing it.
func (e *Engine) ProcessMessage(ctx context.Context, req ProcessRequest) (core.Result, error) {
	if strings.TrimSpace(req.Message) == "" {
		return core.Result{}, &core.ValidationError{Field: "message", Reason: "must not be empty"}
	}
	if strings.TrimSpace(req.UserID) == "" {
		return core.Result{}, &core.ValidationError{Field: "userId", Reason: "must not be empty"}
	}
	if strings.TrimSpace(req.ConversationID) == "" {
		return core.Result{}, &core.ValidationError{Field: "conversationId", Reason: "must not be empty"}
	}

	result := core.Result{Status: core.StatusOK}

	summary, degradations, err := e.summaryMgr.Advance(ctx, req.ConversationID, req.UserID, req.Message)
	if err != nil {
		return core.Result{}, err
	}
	for _, reason := range degradations {
		result.Degrade(reason)
	}
	result.NewSummary = summary.Summary

	candidate, embedding, err := e.candidates.Generate(ctx, summary.Summary, req.Message)
	if err != nil {
		return core.Result{}, &core.ProviderError{Op: "candidate", Err: err}
	}
	result.CandidateMemory = candidate

	neighbors, err := e.neighbors(ctx, embedding)
	if err != nil {
		return core.Result{}, err
	}

	decision, err := e.decider.Decide(ctx, candidate, neighbors)
	if err != nil {
		return core.Result{}, err
	}
	result.Action = decision.Action

	writtenID, err := e.writer.Apply(ctx, decision, memory.Candidate{
		Content:        candidate,
		Embedding:      embedding,
		OwnerID:        req.UserID,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		return core.Result{}, err
	}
	result.TargetID = writtenID
	result.StatusDetail = statusDetail(decision, writtenID)

	e.logger.Info("consolidated message",
		"conversation", req.ConversationID,
		"action", decision.Action,
		"record", writtenID,
	)

	e.mirror(ctx, &result, candidate, graph.Metadata{
		RecordID:       writtenID,
		OwnerID:        req.UserID,
		ConversationID: req.ConversationID,
		Action:         string(decision.Action),
	})
	return result, nil
}

// Query embeds the text, retrieves the nearest memories, and keeps
// only the ones the model judges relevant.
func (e *Engine) Query(ctx context.Context, text string, topK int) ([]core.ScoredMemory, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &core.ValidationError{Field: "q", Reason: "must not be empty"}
	}

	scored, err := e.retriever.Retrieve(ctx, text, topK)
	if err != nil {
		return nil, err
	}
	return e.filter.Filter(ctx, text, scored), nil
}

// AddDirect stores content as a memory without consolidation. Useful
// for seeding a corpus or importing memories from another system.
func (e *Engine) AddDirect(ctx context.Context, content, ownerID string) (core.Record, error) {
	if strings.TrimSpace(content) == "" {
		return core.Record{}, &core.ValidationError{Field: "content", Reason: "must not be empty"}
	}

	content = memory.Normalize(content)
	embedding, err := e.embedder.Embed(ctx, content)
	if err != nil {
		return core.Record{}, &core.ProviderError{Op: "embed", Err: err}
	}

	now := time.Now().UTC()
	rec := core.Record{
		ID:        uuid.NewString(),
		Content:   content,
		Embedding: embedding,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.Create(ctx, rec); err != nil {
		return core.Record{}, &core.StoreError{Op: "create", Err: err}
	}
	return rec, nil
}

// Close releases the engine's collaborators.
func (e *Engine) Close(ctx context.Context) error {
	if err := e.sink.Close(ctx); err != nil {
		e.logger.Warn("closing graph sink", "err", err)
	}
	return e.store.Close()
}

func (e *Engine) neighbors(ctx context.Context, embedding []float32) ([]core.Neighbor, error) {
	scored, err := e.retriever.Nearest(ctx, embedding, e.topK)
	if err != nil {
		return nil, err
	}
	neighbors := make([]core.Neighbor, 0, len(scored))
	for _, s := range scored {
		neighbors = append(neighbors, core.Neighbor{Record: s.Record, Similarity: s.Similarity})
	}
	return neighbors, nil
}

// mirror forwards the consolidated candidate to the graph sink. A
// failure degrades the result but never rolls back the primary write.
func (e *Engine) mirror(ctx context.Context, result *core.Result, content string, meta graph.Metadata) {
	if result.Action == core.ActionNoop {
		return
	}
	if err := e.sink.Ingest(ctx, content, meta); err != nil {
		e.logger.Warn("graph mirror failed", "record", meta.RecordID, "err", err)
		result.Degrade(fmt.Sprintf("graph mirror failed: %v", err))
	}
}

func statusDetail(decision core.Decision, writtenID string) string {
	switch decision.Action {
	case core.ActionAdd:
		return "Added new memory"
	case core.ActionUpdate:
		return fmt.Sprintf("Updated memory %s", writtenID)
	case core.ActionDelete:
		return fmt.Sprintf("Deleted %s and replaced with candidate memory", decision.TargetID)
	default:
		return "No operation performed"
	}
}

// NewConversationID mints an identifier for a fresh conversation.
// ProcessMessage requires a conversation ID; callers starting a new
// conversation can use this to create one.
func NewConversationID(userID string) string {
	return fmt.Sprintf("%s-conv-%s", userID, strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
