package billing

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectSubscription = `
SELECT id, user_id, plan, earnings_analysis_count, portfolio_analysis_count, usage_reset_at, created_at, updated_at
FROM subscriptions`

// GetByUser returns the subscription for a user.
func (r *PGRepo) GetByUser(ctx context.Context, userID string) (Subscription, error) {
	const query = selectSubscription + ` WHERE user_id = $1 LIMIT 1`
	var s Subscription
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&s.ID,
		&s.UserID,
		&s.Plan,
		&s.EarningsAnalysisCount,
		&s.PortfolioAnalysisCount,
		&s.UsageResetAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Subscription{}, ErrNotFound
	}
	return s, err
}

// Create inserts a subscription row. A concurrent insert for the same user
// wins via the unique constraint; callers retry with GetByUser.
func (r *PGRepo) Create(ctx context.Context, sub Subscription) (Subscription, error) {
	const query = `
INSERT INTO subscriptions (user_id, plan, earnings_analysis_count, portfolio_analysis_count, usage_reset_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id) DO NOTHING
RETURNING id`
	err := r.DB.QueryRowContext(ctx, query,
		sub.UserID,
		sub.Plan,
		sub.EarningsAnalysisCount,
		sub.PortfolioAnalysisCount,
		sub.UsageResetAt,
		sub.CreatedAt,
		sub.UpdatedAt,
	).Scan(&sub.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return r.GetByUser(ctx, sub.UserID)
	}
	if err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

// Update persists plan and usage counters.
func (r *PGRepo) Update(ctx context.Context, sub Subscription) error {
	const query = `
UPDATE subscriptions
SET plan = $2,
    earnings_analysis_count = $3,
    portfolio_analysis_count = $4,
    usage_reset_at = $5,
    updated_at = $6
WHERE user_id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		sub.UserID,
		sub.Plan,
		sub.EarningsAnalysisCount,
		sub.PortfolioAnalysisCount,
		sub.UsageResetAt,
		sub.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
