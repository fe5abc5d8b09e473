package core

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by stores for point reads and deletes of ids that
// do not exist.
var ErrNotFound = errors.New("record not found")

// ValidationError reports a missing or malformed request field. It is
// raised before any external call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %q: %s", e.Field, e.Reason)
}

// ProviderError wraps a failed embedding or completion call. Op names the
// sub-step that failed ("summary", "candidate", "embed", "merge", ...).
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StoreError wraps a failed vector-store read or write.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// SinkError wraps a failed graph-sink ingestion. It is never propagated as
// a request failure; callers record it as a degradation.
type SinkError struct {
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("graph sink: %v", e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }
