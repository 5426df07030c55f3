package storage

import (
	"context"
	"time"

	"github.com/poiesic/studyforge/core"
)

// DefaultRetention is how long a task record lives after its last write.
const DefaultRetention = 24 * time.Hour

// TaskStore holds task records keyed by task id.
// Implementations must be thread-safe and support concurrent access.
type TaskStore interface {
	// Create stores a new task.
	// Returns ErrDuplicateKey if a task with the same id exists.
	Create(ctx context.Context, task *core.Task) error

	// Get returns a copy of the task.
	// Returns ErrNotFound if the task doesn't exist or has expired.
	Get(ctx context.Context, id string) (*core.Task, error)

	// Update applies fn to the stored task and writes the result back
	// atomically. If fn returns an error nothing is written and the error is
	// returned unchanged. Returns the updated copy.
	// Returns ErrNotFound if the task doesn't exist.
	Update(ctx context.Context, id string, fn func(*core.Task) error) (*core.Task, error)

	// Delete removes the task. Deleting a missing task is not an error.
	Delete(ctx context.Context, id string) error
}

// CaseIndex maps caller-supplied case ids to the task that analyzed them.
type CaseIndex interface {
	// BindCase records taskID as the analysis of caseID, replacing any
	// earlier binding.
	BindCase(ctx context.Context, caseID, taskID string) error

	// LookupCase returns the task bound to caseID.
	// Returns ErrNotFound if there is no binding.
	LookupCase(ctx context.Context, caseID string) (string, error)
}

// Store is a complete backend.
type Store interface {
	TaskStore
	CaseIndex

	// Close releases resources held by the backend.
	Close() error
}
