package billing

import (
	"context"
	"errors"
	"time"

	"stockbuddy-backend/internal/shared/telemetry"
)

// Usage counter names.
const (
	UsageEarningsAnalysis  = "earnings_analysis"
	UsagePortfolioAnalysis = "portfolio_analysis"
)

// ErrLimitReached indicates a monthly quota is exhausted.
var ErrLimitReached = errors.New("analysis limit reached")

// ErrUpgradeRequired indicates a feature is reserved for the pro plan.
var ErrUpgradeRequired = errors.New("upgrade required")

// Service enforces plan limits and tracks usage.
type Service struct {
	Repo Repo
}

// GetOrCreate returns the user's subscription, creating a free-tier default
// on first contact and rolling the monthly counters when a month has passed.
func (s *Service) GetOrCreate(ctx context.Context, userID string) (Subscription, error) {
	sub, err := s.Repo.GetByUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		now := time.Now().UTC()
		return s.Repo.Create(ctx, Subscription{
			UserID:       userID,
			Plan:         PlanFree,
			UsageResetAt: now,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if err != nil {
		return Subscription{}, err
	}
	return s.maybeResetUsage(ctx, sub)
}

func (s *Service) maybeResetUsage(ctx context.Context, sub Subscription) (Subscription, error) {
	now := time.Now().UTC()
	if now.Sub(sub.UsageResetAt) <= 30*24*time.Hour {
		return sub, nil
	}
	sub.EarningsAnalysisCount = 0
	sub.PortfolioAnalysisCount = 0
	sub.UsageResetAt = now
	sub.UpdatedAt = now
	if err := s.Repo.Update(ctx, sub); err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

// CheckEarningsAnalysis returns ErrLimitReached when the monthly earnings
// analysis quota is spent.
func (s *Service) CheckEarningsAnalysis(ctx context.Context, userID string) error {
	sub, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	limit := LimitsFor(sub.Plan).EarningsAnalysisPerMonth
	if limit != nil && sub.EarningsAnalysisCount >= *limit {
		return ErrLimitReached
	}
	return nil
}

// CheckPortfolioAnalysis returns ErrLimitReached when the monthly portfolio
// analysis quota is spent.
func (s *Service) CheckPortfolioAnalysis(ctx context.Context, userID string) error {
	sub, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	limit := LimitsFor(sub.Plan).PortfolioAnalysisPerMonth
	if limit != nil && sub.PortfolioAnalysisCount >= *limit {
		return ErrLimitReached
	}
	return nil
}

// CheckCompare returns ErrUpgradeRequired for plans without comparison.
func (s *Service) CheckCompare(ctx context.Context, userID string) error {
	sub, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	if !LimitsFor(sub.Plan).CanCompare {
		return ErrUpgradeRequired
	}
	return nil
}

// CheckForecast returns ErrUpgradeRequired for plans without forecasting.
func (s *Service) CheckForecast(ctx context.Context, userID string) error {
	sub, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	if !LimitsFor(sub.Plan).CanForecast {
		return ErrUpgradeRequired
	}
	return nil
}

// CheckCreatePortfolio enforces the portfolio-count cap given the user's
// current count.
func (s *Service) CheckCreatePortfolio(ctx context.Context, userID string, currentCount int) error {
	sub, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	limit := LimitsFor(sub.Plan).Portfolios
	if limit != nil && currentCount >= *limit {
		return ErrLimitReached
	}
	return nil
}

// CheckAddHolding enforces the holdings-per-portfolio cap.
func (s *Service) CheckAddHolding(ctx context.Context, userID string, currentCount int) error {
	sub, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	limit := LimitsFor(sub.Plan).HoldingsPerPortfolio
	if limit != nil && currentCount >= *limit {
		return ErrLimitReached
	}
	return nil
}

// IncrementUsage bumps a usage counter after a successful analysis. Failures
// are logged, never propagated: the analysis itself already succeeded.
func (s *Service) IncrementUsage(ctx context.Context, userID, usageType string) {
	sub, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		telemetry.Warn("billing.usage_increment_failed", map[string]any{
			"user_id":    userID,
			"usage_type": usageType,
			"error":      err.Error(),
		})
		return
	}
	switch usageType {
	case UsageEarningsAnalysis:
		sub.EarningsAnalysisCount++
	case UsagePortfolioAnalysis:
		sub.PortfolioAnalysisCount++
	default:
		return
	}
	sub.UpdatedAt = time.Now().UTC()
	if err := s.Repo.Update(ctx, sub); err != nil {
		telemetry.Warn("billing.usage_increment_failed", map[string]any{
			"user_id":    userID,
			"usage_type": usageType,
			"error":      err.Error(),
		})
	}
}
