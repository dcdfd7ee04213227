package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFilter signals a malformed filter request. Never retried,
	// always surfaced to the caller.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrInvalidArgument signals a malformed non-filter parameter.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrTimeout signals that a backing-store call exceeded its budget.
	// Retryable by the caller; never retried internally.
	ErrTimeout = errors.New("store timeout")
	// ErrSnapshotCold signals that no materialized trending snapshot has
	// been computed yet for the requested timeframe.
	ErrSnapshotCold = errors.New("trending snapshot not ready")
)

// PartialFailureError records one content kind's sub-query failure during a
// fan-out. The orchestrator logs it and degrades the response instead of
// escalating to total failure.
type PartialFailureError struct {
	Kind ContentType
	Err  error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("sub-query for %s failed: %v", e.Kind, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }
