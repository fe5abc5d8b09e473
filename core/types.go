package core

import "time"

// Record is a single consolidated memory as persisted in the vector store.
//
// The embedding is always the embedding of the current Content; the writer
// never persists one without the other. ID is assigned once at creation and
// never changes — an update rewrites Content, Embedding and UpdatedAt in
// place, a contradiction deletes the record and creates a replacement under
// a fresh ID.
type Record struct {
	ID             string    `json:"id"`
	Content        string    `json:"content"`
	Embedding      []float32 `json:"embedding,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	OwnerID        string    `json:"owner_id,omitempty"`
	ConversationID string    `json:"conversation_id,omitempty"`
}

// Summary is the evolving per-conversation digest.
//
// The summary text is a fold: each message is merged into the previous
// summary rather than recomputed from the full history. LastMessages holds
// at most SummaryWindow raw messages, oldest first, evicted FIFO.
type Summary struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id,omitempty"`
	Summary        string    `json:"summary"`
	LastMessages   []string  `json:"last_messages"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SummaryWindow bounds Summary.LastMessages.
const SummaryWindow = 5

// SearchHit is a raw nearest-neighbor result from a vector store: the
// stored record plus its distance to the query vector. Distance is nil when
// the backend could not report one.
type SearchHit struct {
	Record   Record
	Distance *float64
}

// Neighbor is a search hit after scoring: record plus similarity in [0,1].
type Neighbor struct {
	Record     Record
	Similarity float64
}

// ScoredMemory is a retrieval result exposed to callers of the query flow.
type ScoredMemory struct {
	Record     Record  `json:"record"`
	Similarity float64 `json:"similarity"`
}

// Action is the consolidation verdict for a candidate memory.
type Action string

const (
	// ActionAdd stores the candidate as a new record.
	ActionAdd Action = "ADD"

	// ActionUpdate merges the candidate into an existing record.
	ActionUpdate Action = "UPDATE"

	// ActionDelete removes a contradicted record and stores the candidate
	// as its replacement.
	ActionDelete Action = "DELETE"

	// ActionNoop leaves the store untouched; the candidate duplicates an
	// existing record.
	ActionNoop Action = "NO-OP"
)

// Decision pairs an Action with the record it targets. TargetID is empty
// for ActionAdd and for a Noop against an empty store.
type Decision struct {
	Action   Action
	TargetID string
}
