package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new job.
func (r *PGRepo) Create(ctx context.Context, job Job) error {
	const query = `
INSERT INTO analysis_jobs (id, user_id, job_type, status, input_data, result, error, created_at, started_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.DB.ExecContext(ctx, query,
		job.ID,
		job.UserID,
		job.Kind,
		job.Status,
		nullableJSON(job.InputData),
		nullableJSON(job.Result),
		job.Error,
		job.CreatedAt,
		job.StartedAt,
		job.CompletedAt,
	)
	return err
}

// Get returns a job scoped to its owner.
func (r *PGRepo) Get(ctx context.Context, userID, jobID string) (Job, error) {
	const query = selectJob + ` WHERE id = $1 AND user_id = $2 LIMIT 1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, jobID, userID))
}

// UpdateStatus writes status plus whichever optional fields are non-nil.
func (r *PGRepo) UpdateStatus(ctx context.Context, jobID, status string, result json.RawMessage, errorMessage *string, startedAt, completedAt *time.Time) error {
	const query = `
UPDATE analysis_jobs
SET status = $2,
    result = COALESCE($3, result),
    error = COALESCE($4, error),
    started_at = COALESCE($5, started_at),
    completed_at = COALESCE($6, completed_at)
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, jobID, status, nullableJSON(result), errorMessage, startedAt, completedAt)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListStaleProcessing returns processing jobs started before cutoff.
func (r *PGRepo) ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]Job, error) {
	const query = selectJob + ` WHERE status = 'processing' AND COALESCE(started_at, created_at) < $1`
	rows, err := r.DB.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

const selectJob = `
SELECT id, user_id, job_type, status, input_data, result, error, created_at, started_at, completed_at
FROM analysis_jobs`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PGRepo) scanOne(row rowScanner) (Job, error) {
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrNotFound
	}
	return job, err
}

func scanJob(row rowScanner) (Job, error) {
	var j Job
	var inputData, result sql.NullString
	var errorMessage sql.NullString
	var startedAt, completedAt sql.NullTime
	err := row.Scan(&j.ID, &j.UserID, &j.Kind, &j.Status, &inputData, &result, &errorMessage, &j.CreatedAt, &startedAt, &completedAt)
	if err != nil {
		return Job{}, err
	}
	if inputData.Valid {
		j.InputData = json.RawMessage(inputData.String)
	}
	if result.Valid {
		j.Result = json.RawMessage(result.String)
	}
	if errorMessage.Valid {
		msg := errorMessage.String
		j.Error = &msg
	}
	if startedAt.Valid {
		t := startedAt.Time
		j.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		j.CompletedAt = &t
	}
	return j, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

var _ Repo = (*PGRepo)(nil)
