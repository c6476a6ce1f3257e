package store

import (
	"context"
	"errors"
	"time"
)

// ErrVersionConflict is returned by Put when the stored document changed
// since it was read. Callers should re-read and retry.
var ErrVersionConflict = errors.New("user state version conflict")

// UserStateRepo persists whole UserState documents keyed by user id.
type UserStateRepo interface {
	// Get returns the stored state, or nil if the user has none.
	Get(ctx context.Context, userID string) (*UserState, error)

	// Put replaces the stored state. It fails with ErrVersionConflict when
	// s.Version does not match the stored version, and on success sets
	// s.Version to the new version.
	Put(ctx context.Context, s *UserState) error

	// Delete removes the stored state. Deleting a missing user is not an error.
	// Versions keep counting across a delete, so a document recreated
	// afterwards never reuses a version handed out before it.
	Delete(ctx context.Context, userID string) error
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
	UserID string    // exact user match ("" = all)
}

// AllocationEventData captures one allocation pipeline run.
type AllocationEventData struct {
	RunID        string
	UserID       string
	Date         string
	Kind         string
	Success      bool
	TotalMinutes int
	Budget       string
	ModuleIDs    []string
	CarryOver    []string
	Message      string
}

// AllocationEvent is a stored AllocationEventData.
type AllocationEvent struct {
	Sequence  int64
	Timestamp time.Time
	AllocationEventData
}

// CompletionEventData captures one completion toggle.
type CompletionEventData struct {
	UserID         string
	ModuleID       string
	Date           string
	Completed      bool
	CompletedCount int
}

// CompletionEvent is a stored CompletionEventData.
type CompletionEvent struct {
	Sequence  int64
	Timestamp time.Time
	CompletionEventData
}

// EventRepo provides append and query access to engine events.
type EventRepo interface {
	AppendAllocation(ctx context.Context, data AllocationEventData) error
	AppendCompletion(ctx context.Context, data CompletionEventData) error

	// QueryAllocations returns matching allocation events, newest first.
	QueryAllocations(ctx context.Context, opts QueryOpts) ([]AllocationEvent, error)

	// QueryCompletions returns matching completion events, newest first.
	QueryCompletions(ctx context.Context, opts QueryOpts) ([]CompletionEvent, error)

	// Prune deletes all but the keep most recent events of each kind.
	// Returns the number of rows removed.
	Prune(ctx context.Context, keep int) (int, error)
}
