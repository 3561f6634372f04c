package jobs

import (
	"context"
	"errors"
	"time"

	"stockbuddy-backend/internal/shared/telemetry"
)

// Sweeper fails jobs stuck in processing longer than StaleAfter. A job only
// gets stuck when the process executing it died mid-task, so sweeping on a
// timer keeps pollers from waiting forever.
type Sweeper struct {
	Svc        *Service
	StaleAfter time.Duration
	Interval   time.Duration
}

// Run sweeps on a timer until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce fails every currently-stale processing job.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.StaleAfter)
	stale, err := s.Svc.Repo.ListStaleProcessing(ctx, cutoff)
	if err != nil {
		telemetry.Error("job.sweep", map[string]any{"error": err.Error()})
		return
	}
	for _, job := range stale {
		s.Svc.MarkFailed(ctx, job.ID, errors.New("analysis timed out"))
		telemetry.Warn("job.sweep.stale", map[string]any{
			"job_id":   job.ID,
			"job_type": job.Kind,
		})
	}
}
