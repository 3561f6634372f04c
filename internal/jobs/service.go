package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"stockbuddy-backend/internal/shared/metrics"
	"stockbuddy-backend/internal/shared/telemetry"
)

// Service manages the analysis-job lifecycle. Creation happens on the
// request path; all later transitions are driven by the single background
// task executing the job.
type Service struct {
	Repo Repo
}

// Create persists a new pending job and returns it. The caller gets a
// pollable id before any work is scheduled.
func (s *Service) Create(ctx context.Context, userID, kind string, input any) (Job, error) {
	if userID == "" {
		return Job{}, fmt.Errorf("userID is required")
	}
	inputData, err := json.Marshal(input)
	if err != nil {
		return Job{}, fmt.Errorf("marshal job input: %w", err)
	}

	job := Job{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		Status:    StatusPending,
		InputData: inputData,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, job); err != nil {
		return Job{}, err
	}
	return job, nil
}

// Get returns a job scoped to its owner. A job belonging to someone else is
// indistinguishable from a missing one.
func (s *Service) Get(ctx context.Context, userID, jobID string) (Job, error) {
	if jobID == "" {
		return Job{}, ErrNotFound
	}
	return s.Repo.Get(ctx, userID, jobID)
}

// MarkProcessing transitions the job to processing. A missing job is logged
// and ignored; the job was created moments ago by this same process.
func (s *Service) MarkProcessing(ctx context.Context, jobID string) {
	now := time.Now().UTC()
	if err := s.Repo.UpdateStatus(ctx, jobID, StatusProcessing, nil, nil, &now, nil); err != nil {
		telemetry.Error("job.status", map[string]any{
			"job_id": jobID,
			"status": StatusProcessing,
			"error":  err.Error(),
		})
		return
	}
	metrics.IncJobStarted()
	telemetry.Info("job.status", map[string]any{
		"job_id":            jobID,
		"status":            StatusProcessing,
		"status_transition": "pending->processing",
	})
}

// MarkCompleted transitions the job to completed and stores its result.
func (s *Service) MarkCompleted(ctx context.Context, jobID string, result any) {
	payload, err := json.Marshal(result)
	if err != nil {
		s.MarkFailed(ctx, jobID, fmt.Errorf("marshal job result: %w", err))
		return
	}
	now := time.Now().UTC()
	if err := s.Repo.UpdateStatus(ctx, jobID, StatusCompleted, payload, nil, nil, &now); err != nil {
		telemetry.Error("job.status", map[string]any{
			"job_id": jobID,
			"status": StatusCompleted,
			"error":  err.Error(),
		})
		return
	}
	metrics.IncJobCompleted()
	telemetry.Info("job.status", map[string]any{
		"job_id":            jobID,
		"status":            StatusCompleted,
		"status_transition": "processing->completed",
	})
}

// MarkFailed transitions the job to failed, storing a human-readable
// message. Stack traces never reach the stored error.
func (s *Service) MarkFailed(ctx context.Context, jobID string, cause error) {
	msg := sanitizeError(cause)
	now := time.Now().UTC()
	if err := s.Repo.UpdateStatus(ctx, jobID, StatusFailed, nil, &msg, nil, &now); err != nil {
		telemetry.Error("job.status", map[string]any{
			"job_id": jobID,
			"status": StatusFailed,
			"error":  err.Error(),
		})
		return
	}
	metrics.IncJobFailed()
	telemetry.Info("job.status", map[string]any{
		"job_id":            jobID,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error":             msg,
	})
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
