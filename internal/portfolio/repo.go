package portfolio

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a portfolio or holding does not exist or
// belongs to a different owner.
var ErrNotFound = errors.New("portfolio not found")

// Repo defines persistence operations for portfolios and holdings. Every
// read and write is scoped by owner.
type Repo interface {
	CreatePortfolio(ctx context.Context, p Portfolio) (Portfolio, error)
	GetPortfolio(ctx context.Context, userID string, portfolioID int64) (Portfolio, error)
	ListPortfolios(ctx context.Context, userID string) ([]Portfolio, error)
	CountPortfolios(ctx context.Context, userID string) (int, error)
	RenamePortfolio(ctx context.Context, userID string, portfolioID int64, name string) (Portfolio, error)
	DeletePortfolio(ctx context.Context, userID string, portfolioID int64) error

	AddHolding(ctx context.Context, h Holding) (Holding, error)
	ListHoldings(ctx context.Context, userID string, portfolioID int64) ([]Holding, error)
	UpdateHolding(ctx context.Context, h Holding) error
	DeleteHolding(ctx context.Context, userID string, portfolioID, holdingID int64) error
}
