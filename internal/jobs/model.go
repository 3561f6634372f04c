package jobs

import (
	"encoding/json"
	"time"
)

// Job kinds.
const (
	KindEarningsAnalysis  = "earnings_analysis"
	KindPortfolioAnalysis = "portfolio_analysis"
	KindComparison        = "comparison"
)

// Job statuses. Transitions are one-directional:
// pending -> processing -> completed | failed.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Job is a persisted record of one asynchronous analysis request.
// InputData and Result are opaque JSON blobs; their shape is owned by the
// workflow for the given Kind.
type Job struct {
	ID          string          `json:"id"`
	UserID      string          `json:"-"`
	Kind        string          `json:"job_type"`
	Status      string          `json:"status"`
	InputData   json.RawMessage `json:"input_data,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       *string         `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Terminal reports whether the job reached a final state.
func (j Job) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}
