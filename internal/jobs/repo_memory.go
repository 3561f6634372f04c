package jobs

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryRepo stores jobs in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Job
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Job)}
}

// Create stores the job.
func (r *MemoryRepo) Create(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[job.ID] = job
	return nil
}

// Get returns a job scoped to its owner. A job belonging to someone else is
// indistinguishable from a missing one.
func (r *MemoryRepo) Get(ctx context.Context, userID, jobID string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.byID[jobID]
	if !ok || job.UserID != userID {
		return Job{}, ErrNotFound
	}
	return job, nil
}

// UpdateStatus updates status, payloads and timestamps for an existing job.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, jobID, status string, result json.RawMessage, errorMessage *string, startedAt, completedAt *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.byID[jobID]
	if !ok {
		return ErrNotFound
	}
	job.Status = status
	if result != nil {
		job.Result = result
	}
	if errorMessage != nil {
		job.Error = errorMessage
	}
	if startedAt != nil {
		job.StartedAt = startedAt
	}
	if completedAt != nil {
		job.CompletedAt = completedAt
	}
	r.byID[jobID] = job
	return nil
}

// ListStaleProcessing returns processing jobs started before cutoff.
func (r *MemoryRepo) ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var stale []Job
	for _, job := range r.byID {
		if job.Status != StatusProcessing {
			continue
		}
		started := job.CreatedAt
		if job.StartedAt != nil {
			started = *job.StartedAt
		}
		if started.Before(cutoff) {
			stale = append(stale, job)
		}
	}
	return stale, nil
}

var _ Repo = (*MemoryRepo)(nil)
