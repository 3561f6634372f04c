package portfolio

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryRepo stores portfolios and holdings in memory; safe for concurrent
// use.
type MemoryRepo struct {
	mu         sync.RWMutex
	portfolios map[int64]Portfolio
	holdings   map[int64]Holding
	nextID     int64
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		portfolios: make(map[int64]Portfolio),
		holdings:   make(map[int64]Holding),
	}
}

// CreatePortfolio stores the portfolio with a generated id.
func (r *MemoryRepo) CreatePortfolio(ctx context.Context, p Portfolio) (Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return Portfolio{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	r.portfolios[p.ID] = p
	return p, nil
}

// GetPortfolio returns a portfolio scoped to its owner.
func (r *MemoryRepo) GetPortfolio(ctx context.Context, userID string, portfolioID int64) (Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return Portfolio{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.portfolios[portfolioID]
	if !ok || p.UserID != userID {
		return Portfolio{}, ErrNotFound
	}
	return p, nil
}

// ListPortfolios returns the user's portfolios, newest first.
func (r *MemoryRepo) ListPortfolios(ctx context.Context, userID string) ([]Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Portfolio
	for _, p := range r.portfolios {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CountPortfolios returns how many portfolios the user has.
func (r *MemoryRepo) CountPortfolios(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count int
	for _, p := range r.portfolios {
		if p.UserID == userID {
			count++
		}
	}
	return count, nil
}

// RenamePortfolio updates the portfolio name.
func (r *MemoryRepo) RenamePortfolio(ctx context.Context, userID string, portfolioID int64, name string) (Portfolio, error) {
	if err := ctx.Err(); err != nil {
		return Portfolio{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.portfolios[portfolioID]
	if !ok || p.UserID != userID {
		return Portfolio{}, ErrNotFound
	}
	p.Name = name
	r.portfolios[portfolioID] = p
	return p, nil
}

// DeletePortfolio removes the portfolio and its holdings.
func (r *MemoryRepo) DeletePortfolio(ctx context.Context, userID string, portfolioID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.portfolios[portfolioID]
	if !ok || p.UserID != userID {
		return ErrNotFound
	}
	delete(r.portfolios, portfolioID)
	for id, h := range r.holdings {
		if h.PortfolioID == portfolioID {
			delete(r.holdings, id)
		}
	}
	return nil
}

// AddHolding stores the holding with a generated id.
func (r *MemoryRepo) AddHolding(ctx context.Context, h Holding) (Holding, error) {
	if err := ctx.Err(); err != nil {
		return Holding{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	h.ID = r.nextID
	h.Ticker = strings.ToUpper(h.Ticker)
	r.holdings[h.ID] = h
	return h, nil
}

// ListHoldings returns the holdings of a portfolio.
func (r *MemoryRepo) ListHoldings(ctx context.Context, userID string, portfolioID int64) ([]Holding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Holding
	for _, h := range r.holdings {
		if h.UserID == userID && h.PortfolioID == portfolioID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateHolding persists shares and market fields.
func (r *MemoryRepo) UpdateHolding(ctx context.Context, h Holding) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.holdings[h.ID]
	if !ok || existing.UserID != h.UserID || existing.PortfolioID != h.PortfolioID {
		return ErrNotFound
	}
	h.Ticker = existing.Ticker
	h.CreatedAt = existing.CreatedAt
	r.holdings[h.ID] = h
	return nil
}

// DeleteHolding removes one holding.
func (r *MemoryRepo) DeleteHolding(ctx context.Context, userID string, portfolioID, holdingID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.holdings[holdingID]
	if !ok || h.UserID != userID || h.PortfolioID != portfolioID {
		return ErrNotFound
	}
	delete(r.holdings, holdingID)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
