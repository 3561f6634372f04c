package portfolio

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// CreatePortfolio inserts a portfolio and returns it with its id.
func (r *PGRepo) CreatePortfolio(ctx context.Context, p Portfolio) (Portfolio, error) {
	const query = `
INSERT INTO portfolios (user_id, name, created_at, updated_at)
VALUES ($1, $2, $3, $4)
RETURNING id`
	err := r.DB.QueryRowContext(ctx, query, p.UserID, p.Name, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		return Portfolio{}, err
	}
	return p, nil
}

// GetPortfolio returns a portfolio scoped to its owner, without holdings.
func (r *PGRepo) GetPortfolio(ctx context.Context, userID string, portfolioID int64) (Portfolio, error) {
	const query = `
SELECT id, user_id, name, created_at, updated_at
FROM portfolios
WHERE id = $1 AND user_id = $2
LIMIT 1`
	var p Portfolio
	err := r.DB.QueryRowContext(ctx, query, portfolioID, userID).Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Portfolio{}, ErrNotFound
	}
	if err != nil {
		return Portfolio{}, err
	}
	return p, nil
}

// ListPortfolios returns the user's portfolios, newest first.
func (r *PGRepo) ListPortfolios(ctx context.Context, userID string) ([]Portfolio, error) {
	const query = `
SELECT id, user_id, name, created_at, updated_at
FROM portfolios
WHERE user_id = $1
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Portfolio
	for rows.Next() {
		var p Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountPortfolios returns how many portfolios the user has.
func (r *PGRepo) CountPortfolios(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM portfolios WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

// RenamePortfolio updates the portfolio name.
func (r *PGRepo) RenamePortfolio(ctx context.Context, userID string, portfolioID int64, name string) (Portfolio, error) {
	const query = `
UPDATE portfolios
SET name = $3, updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, name, created_at, updated_at`
	var p Portfolio
	err := r.DB.QueryRowContext(ctx, query, portfolioID, userID, name).Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Portfolio{}, ErrNotFound
	}
	if err != nil {
		return Portfolio{}, err
	}
	return p, nil
}

// DeletePortfolio removes the portfolio; holdings cascade.
func (r *PGRepo) DeletePortfolio(ctx context.Context, userID string, portfolioID int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM portfolios WHERE id = $1 AND user_id = $2`, portfolioID, userID)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// AddHolding inserts a holding and returns it with its id.
func (r *PGRepo) AddHolding(ctx context.Context, h Holding) (Holding, error) {
	const query = `
INSERT INTO holdings (user_id, portfolio_id, ticker, shares, last_price, prev_close, sector, beta, dividend_yield, next_earnings_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING id`
	err := r.DB.QueryRowContext(ctx, query,
		h.UserID,
		h.PortfolioID,
		strings.ToUpper(h.Ticker),
		h.Shares,
		h.LastPrice,
		h.PrevClose,
		h.Sector,
		h.Beta,
		h.DividendYield,
		h.NextEarningsDate,
		h.CreatedAt,
		h.UpdatedAt,
	).Scan(&h.ID)
	if err != nil {
		return Holding{}, err
	}
	h.Ticker = strings.ToUpper(h.Ticker)
	return h, nil
}

const selectHolding = `
SELECT id, user_id, portfolio_id, ticker, shares, last_price, prev_close, sector, beta, dividend_yield, next_earnings_date, created_at, updated_at
FROM holdings`

// ListHoldings returns the holdings of a portfolio.
func (r *PGRepo) ListHoldings(ctx context.Context, userID string, portfolioID int64) ([]Holding, error) {
	const query = selectHolding + ` WHERE user_id = $1 AND portfolio_id = $2 ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, userID, portfolioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Holding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// UpdateHolding persists shares and market fields.
func (r *PGRepo) UpdateHolding(ctx context.Context, h Holding) error {
	const query = `
UPDATE holdings
SET shares = $4,
    last_price = $5,
    prev_close = $6,
    sector = $7,
    beta = $8,
    dividend_yield = $9,
    next_earnings_date = $10,
    updated_at = $11
WHERE id = $1 AND user_id = $2 AND portfolio_id = $3`
	res, err := r.DB.ExecContext(ctx, query,
		h.ID,
		h.UserID,
		h.PortfolioID,
		h.Shares,
		h.LastPrice,
		h.PrevClose,
		h.Sector,
		h.Beta,
		h.DividendYield,
		h.NextEarningsDate,
		h.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteHolding removes one holding.
func (r *PGRepo) DeleteHolding(ctx context.Context, userID string, portfolioID, holdingID int64) error {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM holdings WHERE id = $1 AND user_id = $2 AND portfolio_id = $3`,
		holdingID, userID, portfolioID,
	)
	if err != nil {
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanHolding(rows *sql.Rows) (Holding, error) {
	var h Holding
	var lastPrice, prevClose, beta, dividendYield sql.NullFloat64
	var sector sql.NullString
	var nextEarnings sql.NullTime
	err := rows.Scan(
		&h.ID,
		&h.UserID,
		&h.PortfolioID,
		&h.Ticker,
		&h.Shares,
		&lastPrice,
		&prevClose,
		&sector,
		&beta,
		&dividendYield,
		&nextEarnings,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return Holding{}, err
	}
	if lastPrice.Valid {
		v := lastPrice.Float64
		h.LastPrice = &v
	}
	if prevClose.Valid {
		v := prevClose.Float64
		h.PrevClose = &v
	}
	h.Sector = sector.String
	if beta.Valid {
		v := beta.Float64
		h.Beta = &v
	}
	if dividendYield.Valid {
		v := dividendYield.Float64
		h.DividendYield = &v
	}
	if nextEarnings.Valid {
		t := nextEarnings.Time
		h.NextEarningsDate = &t
	}
	return h, nil
}

var _ Repo = (*PGRepo)(nil)
