package jobs

import (
	"context"
	"encoding/json"
	"time"
)

// Repo defines persistence operations for analysis jobs.
type Repo interface {
	Create(ctx context.Context, job Job) error
	// Get returns a job scoped to its owner; a job belonging to a different
	// owner yields ErrNotFound.
	Get(ctx context.Context, userID, jobID string) (Job, error)
	// UpdateStatus writes the status plus whichever of result, errorMessage,
	// startedAt and completedAt are non-nil.
	UpdateStatus(ctx context.Context, jobID, status string, result json.RawMessage, errorMessage *string, startedAt, completedAt *time.Time) error
	// ListStaleProcessing returns jobs stuck in processing since before cutoff.
	ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]Job, error)
}
