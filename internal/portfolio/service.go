package portfolio

import (
	"context"
	"strings"
	"time"

	"stockbuddy-backend/internal/marketdata"
	"stockbuddy-backend/internal/shared/telemetry"
)

// courtesyDelay spaces Alpha Vantage calls to stay inside the free-tier
// rate limit (5 requests/minute).
const courtesyDelay = 1500 * time.Millisecond

// PlanGate enforces plan caps on portfolio and holding creation.
type PlanGate interface {
	CheckCreatePortfolio(ctx context.Context, userID string, currentCount int) error
	CheckAddHolding(ctx context.Context, userID string, currentCount int) error
}

// Service owns portfolio CRUD and holding enrichment. Market fields on new
// holdings are best-effort: a failed upstream call logs a warning and falls
// back to defaults rather than failing the write.
type Service struct {
	Repo     Repo
	Market   marketdata.Gateway
	Plans    PlanGate
	Analyzer *Analyzer

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func (s *Service) pause(ctx context.Context, d time.Duration) error {
	if s.sleep != nil {
		return s.sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Create adds a portfolio after checking the plan cap.
func (s *Service) Create(ctx context.Context, userID, name string) (Portfolio, error) {
	count, err := s.Repo.CountPortfolios(ctx, userID)
	if err != nil {
		return Portfolio{}, err
	}
	if err := s.Plans.CheckCreatePortfolio(ctx, userID, count); err != nil {
		return Portfolio{}, err
	}
	now := time.Now().UTC()
	return s.Repo.CreatePortfolio(ctx, Portfolio{
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// List returns the user's portfolios, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]Portfolio, error) {
	return s.Repo.ListPortfolios(ctx, userID)
}

// Get returns a portfolio with its holdings attached.
func (s *Service) Get(ctx context.Context, userID string, portfolioID int64) (Portfolio, error) {
	p, err := s.Repo.GetPortfolio(ctx, userID, portfolioID)
	if err != nil {
		return Portfolio{}, err
	}
	holdings, err := s.Repo.ListHoldings(ctx, userID, portfolioID)
	if err != nil {
		return Portfolio{}, err
	}
	p.Holdings = holdings
	return p, nil
}

// Rename updates the portfolio name.
func (s *Service) Rename(ctx context.Context, userID string, portfolioID int64, name string) (Portfolio, error) {
	return s.Repo.RenamePortfolio(ctx, userID, portfolioID, name)
}

// Delete removes a portfolio and its holdings.
func (s *Service) Delete(ctx context.Context, userID string, portfolioID int64) error {
	return s.Repo.DeletePortfolio(ctx, userID, portfolioID)
}

// AddHolding inserts a holding and populates its market fields. Price and
// fundamentals are fetched independently so a rate limit on one call does
// not lose the other's data.
func (s *Service) AddHolding(ctx context.Context, userID string, portfolioID int64, ticker string, shares float64) (Holding, error) {
	if _, err := s.Repo.GetPortfolio(ctx, userID, portfolioID); err != nil {
		return Holding{}, err
	}
	existing, err := s.Repo.ListHoldings(ctx, userID, portfolioID)
	if err != nil {
		return Holding{}, err
	}
	if err := s.Plans.CheckAddHolding(ctx, userID, len(existing)); err != nil {
		return Holding{}, err
	}

	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	now := time.Now().UTC()
	h := Holding{
		UserID:      userID,
		PortfolioID: portfolioID,
		Ticker:      ticker,
		Shares:      shares,
		Sector:      "Unknown",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	defaultBeta := 1.0
	h.Beta = &defaultBeta

	price, err := s.Market.GetLatestPrice(ctx, ticker)
	if err != nil {
		telemetry.Warn("portfolio.price_fetch_failed", map[string]any{
			"ticker": ticker,
			"error":  err.Error(),
		})
	} else {
		h.LastPrice = price
	}

	if err := s.pause(ctx, courtesyDelay); err != nil {
		return Holding{}, err
	}

	fund, err := s.Market.GetFundamentals(ctx, ticker)
	if err != nil {
		telemetry.Warn("portfolio.fundamentals_fetch_failed", map[string]any{
			"ticker": ticker,
			"error":  err.Error(),
		})
	} else {
		if fund.Sector != "" {
			h.Sector = fund.Sector
		}
		if fund.Beta != nil {
			h.Beta = fund.Beta
		}
		h.DividendYield = fund.DividendYield
		h.PrevClose = fund.PreviousClose
		if fund.NextEarningsDate != "" {
			if d, err := time.Parse("2006-01-02", fund.NextEarningsDate); err == nil {
				h.NextEarningsDate = &d
			}
		}
	}

	return s.Repo.AddHolding(ctx, h)
}

// RefreshHoldings refetches the latest price for every holding in a
// portfolio, pausing between tickers for the upstream rate limit. Fetch
// failures leave the stale price in place.
func (s *Service) RefreshHoldings(ctx context.Context, userID string, portfolioID int64) ([]Holding, error) {
	if _, err := s.Repo.GetPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	holdings, err := s.Repo.ListHoldings(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}
	for i := range holdings {
		if i > 0 {
			if err := s.pause(ctx, courtesyDelay); err != nil {
				return nil, err
			}
		}
		price, err := s.Market.GetLatestPrice(ctx, holdings[i].Ticker)
		if err != nil {
			telemetry.Warn("portfolio.price_refresh_failed", map[string]any{
				"ticker": holdings[i].Ticker,
				"error":  err.Error(),
			})
			continue
		}
		if price == nil {
			continue
		}
		holdings[i].LastPrice = price
		holdings[i].UpdatedAt = time.Now().UTC()
		if err := s.Repo.UpdateHolding(ctx, holdings[i]); err != nil {
			return nil, err
		}
	}
	return holdings, nil
}

// UpdateShares changes the share count on one holding.
func (s *Service) UpdateShares(ctx context.Context, userID string, portfolioID, holdingID int64, shares float64) (Holding, error) {
	holdings, err := s.Repo.ListHoldings(ctx, userID, portfolioID)
	if err != nil {
		return Holding{}, err
	}
	for _, h := range holdings {
		if h.ID != holdingID {
			continue
		}
		h.Shares = shares
		h.UpdatedAt = time.Now().UTC()
		if err := s.Repo.UpdateHolding(ctx, h); err != nil {
			return Holding{}, err
		}
		return h, nil
	}
	return Holding{}, ErrNotFound
}

// RemoveHolding deletes one holding.
func (s *Service) RemoveHolding(ctx context.Context, userID string, portfolioID, holdingID int64) error {
	return s.Repo.DeleteHolding(ctx, userID, portfolioID, holdingID)
}

// Snapshot computes the derived aggregate for a portfolio.
func (s *Service) Snapshot(ctx context.Context, userID string, portfolioID int64) (Snapshot, error) {
	if _, err := s.Repo.GetPortfolio(ctx, userID, portfolioID); err != nil {
		return Snapshot{}, err
	}
	holdings, err := s.Repo.ListHoldings(ctx, userID, portfolioID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.Analyzer.Snapshot(ctx, userID, portfolioID, holdings)
}

// Sectors computes the sector allocation of a portfolio.
func (s *Service) Sectors(ctx context.Context, userID string, portfolioID int64) ([]SectorAllocation, error) {
	if _, err := s.Repo.GetPortfolio(ctx, userID, portfolioID); err != nil {
		return nil, err
	}
	holdings, err := s.Repo.ListHoldings(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}
	return s.Analyzer.SectorAllocations(holdings), nil
}

// Insights buckets a portfolio's holdings by earnings sentiment.
func (s *Service) Insights(ctx context.Context, userID string, portfolioID int64) (EarningsInsights, error) {
	if _, err := s.Repo.GetPortfolio(ctx, userID, portfolioID); err != nil {
		return EarningsInsights{}, err
	}
	holdings, err := s.Repo.ListHoldings(ctx, userID, portfolioID)
	if err != nil {
		return EarningsInsights{}, err
	}
	return s.Analyzer.Insights(ctx, userID, holdings)
}
