package billing

import "time"

// Plans.
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// Subscription tracks a user's plan and monthly analysis usage.
type Subscription struct {
	ID                     int64     `json:"-"`
	UserID                 string    `json:"-"`
	Plan                   string    `json:"plan"`
	EarningsAnalysisCount  int       `json:"earnings_analysis_count"`
	PortfolioAnalysisCount int       `json:"portfolio_analysis_count"`
	UsageResetAt           time.Time `json:"usage_reset_at"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// Limits describes what a plan allows. Nil counts mean unlimited.
type Limits struct {
	Portfolios                *int `json:"portfolios"`
	HoldingsPerPortfolio      *int `json:"holdings_per_portfolio"`
	EarningsAnalysisPerMonth  *int `json:"earnings_analysis_per_month"`
	PortfolioAnalysisPerMonth *int `json:"portfolio_analysis_per_month"`
	CanCompare                bool `json:"can_compare"`
	CanForecast               bool `json:"can_forecast"`
}

func intPtr(v int) *int { return &v }

// FreeLimits caps the free tier.
var FreeLimits = Limits{
	Portfolios:                intPtr(1),
	HoldingsPerPortfolio:      intPtr(10),
	EarningsAnalysisPerMonth:  intPtr(3),
	PortfolioAnalysisPerMonth: intPtr(1),
	CanCompare:                false,
	CanForecast:               false,
}

// ProLimits is everything unlimited.
var ProLimits = Limits{
	CanCompare:  true,
	CanForecast: true,
}

// LimitsFor returns the limits for a plan. Unknown plans get free limits.
func LimitsFor(plan string) Limits {
	if plan == PlanPro {
		return ProLimits
	}
	return FreeLimits
}
