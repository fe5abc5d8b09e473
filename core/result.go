package core

// Status classifies the outcome of a message-processing run. Operations
// declared best-effort (summary upsert, graph mirror) degrade the result
// instead of failing it; everything else is must-succeed.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
)

// Result is the consolidation outcome returned for a processed message.
type Result struct {
	Action          Action   `json:"action"`
	TargetID        string   `json:"target_id,omitempty"`
	CandidateMemory string   `json:"candidate_memory"`
	NewSummary      string   `json:"new_summary"`
	Status          Status   `json:"status"`
	StatusDetail    string   `json:"status_detail"`
	Degradations    []string `json:"degradations,omitempty"`
}

// Degrade records a best-effort failure on the result and downgrades its
// status. The primary outcome is unaffected.
func (r *Result) Degrade(reason string) {
	r.Status = StatusDegraded
	r.Degradations = append(r.Degradations, reason)
}
