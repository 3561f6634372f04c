package earnings

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectRecord = `
SELECT id, user_id, holding_id, ticker, call_date, extracted_text, summary, key_metrics, sentiment_score, risk_mentions, growth_mentions, guidance_outlook, created_at
FROM earnings_calls`

// Create inserts a new record and returns it with its generated id.
func (r *PGRepo) Create(ctx context.Context, rec Record) (Record, error) {
	const query = `
INSERT INTO earnings_calls (user_id, holding_id, ticker, call_date, extracted_text, summary, key_metrics, sentiment_score, risk_mentions, growth_mentions, guidance_outlook, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id`
	metrics, err := json.Marshal(rec.KeyMetrics)
	if err != nil {
		return Record{}, err
	}
	err = r.DB.QueryRowContext(ctx, query,
		rec.UserID,
		rec.HoldingID,
		strings.ToUpper(rec.Ticker),
		rec.CallDate,
		rec.ExtractedText,
		rec.Summary,
		string(metrics),
		rec.SentimentScore,
		rec.RiskMentions,
		rec.GrowthMentions,
		rec.GuidanceOutlook,
		rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return Record{}, err
	}
	rec.Ticker = strings.ToUpper(rec.Ticker)
	return rec, nil
}

// LatestByTicker returns the most recent record for (owner, ticker).
func (r *PGRepo) LatestByTicker(ctx context.Context, userID, ticker string) (Record, error) {
	const query = selectRecord + `
WHERE user_id = $1 AND ticker = $2
ORDER BY created_at DESC
LIMIT 1`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, userID, strings.ToUpper(ticker)))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// ListByUser returns the user's records, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = selectRecord + `
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListByTicker returns the user's records for one ticker, newest first.
func (r *PGRepo) ListByTicker(ctx context.Context, userID, ticker string) ([]Record, error) {
	const query = selectRecord + `
WHERE user_id = $1 AND ticker = $2
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID, strings.ToUpper(ticker))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var holdingID sql.NullInt64
	var callDate sql.NullTime
	var extracted, summary, outlook sql.NullString
	var metricsRaw sql.NullString
	var sentiment sql.NullFloat64
	var risk, growth sql.NullInt64

	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&holdingID,
		&rec.Ticker,
		&callDate,
		&extracted,
		&summary,
		&metricsRaw,
		&sentiment,
		&risk,
		&growth,
		&outlook,
		&rec.CreatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	if holdingID.Valid {
		id := holdingID.Int64
		rec.HoldingID = &id
	}
	if callDate.Valid {
		t := callDate.Time
		rec.CallDate = &t
	}
	rec.ExtractedText = extracted.String
	rec.Summary = summary.String
	rec.GuidanceOutlook = outlook.String
	rec.SentimentScore = sentiment.Float64
	rec.RiskMentions = int(risk.Int64)
	rec.GrowthMentions = int(growth.Int64)
	rec.KeyMetrics = map[string]string{}
	if metricsRaw.Valid && metricsRaw.String != "" {
		_ = json.Unmarshal([]byte(metricsRaw.String), &rec.KeyMetrics)
	}
	return rec, nil
}

var _ Repo = (*PGRepo)(nil)
