package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateInsertsJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	job := Job{
		ID:        "job-1",
		UserID:    "user-1",
		Kind:      KindEarningsAnalysis,
		Status:    StatusPending,
		InputData: json.RawMessage(`{"ticker":"AAPL"}`),
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO analysis_jobs").
		WithArgs(
			job.ID,
			job.UserID,
			job.Kind,
			job.Status,
			`{"ticker":"AAPL"}`,
			nil, // result
			nil, // error
			sqlmock.AnyArg(),
			nil, // started_at
			nil, // completed_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetScansNullableFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	created := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "job_type", "status", "input_data", "result", "error", "created_at", "started_at", "completed_at",
	}).AddRow("job-1", "user-1", KindComparison, StatusPending, `{"tickers":["AAPL","MSFT"]}`, nil, nil, created, nil, nil)

	mock.ExpectQuery("SELECT id, user_id, job_type").
		WithArgs("job-1", "user-1").
		WillReturnRows(rows)

	job, err := repo.Get(context.Background(), "user-1", "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Kind != KindComparison {
		t.Fatalf("kind = %q, want %q", job.Kind, KindComparison)
	}
	if job.Result != nil || job.Error != nil || job.StartedAt != nil || job.CompletedAt != nil {
		t.Fatal("expected nullable fields to stay nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetMissingReturnsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT id, user_id, job_type").
		WithArgs("missing", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "job_type", "status", "input_data", "result", "error", "created_at", "started_at", "completed_at",
		}))

	if _, err := repo.Get(context.Background(), "user-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoUpdateStatusNoRowsReturnsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE analysis_jobs").
		WithArgs("missing", StatusProcessing, nil, nil, now, nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.UpdateStatus(context.Background(), "missing", StatusProcessing, nil, nil, &now, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
