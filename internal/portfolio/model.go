package portfolio

import "time"

// Portfolio groups a user's holdings under a name.
type Portfolio struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Holdings  []Holding `json:"holdings,omitempty"`
}

// Holding is one position in a portfolio. Market fields are populated from
// the fundamentals gateway when the holding is added and on refresh; any of
// them can be absent when the upstream had no data.
type Holding struct {
	ID               int64      `json:"id"`
	UserID           string     `json:"-"`
	PortfolioID      int64      `json:"portfolio_id"`
	Ticker           string     `json:"ticker"`
	Shares           float64    `json:"shares"`
	LastPrice        *float64   `json:"last_price"`
	PrevClose        *float64   `json:"prev_close,omitempty"`
	Sector           string     `json:"sector,omitempty"`
	Beta             *float64   `json:"beta,omitempty"`
	DividendYield    *float64   `json:"dividend_yield,omitempty"`
	NextEarningsDate *time.Time `json:"next_earnings_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Snapshot is the derived, read-only aggregate over a portfolio's current
// holdings. Computed on demand, never persisted.
type Snapshot struct {
	PortfolioID            int64    `json:"portfolio_id"`
	TotalValue             float64  `json:"total_value"`
	NumPositions           int      `json:"num_positions"`
	RecentEarningsCoverage float64  `json:"recent_earnings_coverage"`
	AvgSentimentScore      *float64 `json:"avg_sentiment_score"`
	ConcentrationRisk      float64  `json:"concentration_risk"`
	HealthScore            int      `json:"health_score"`
}

// SectorAllocation is one sector's share of portfolio value.
type SectorAllocation struct {
	Sector string  `json:"sector"`
	Weight float64 `json:"weight"`
	Value  float64 `json:"value"`
}

// EarningsInsights buckets holdings by the sentiment of their most recent
// earnings record. RecommendedReviews lists tickers whose next earnings date
// falls within the coming month.
type EarningsInsights struct {
	HoldingsWithRecentEarnings []string       `json:"holdings_with_recent_earnings"`
	PositiveOutlooks           []string       `json:"positive_outlooks"`
	RiskWarnings               []string       `json:"risk_warnings"`
	RecommendedReviews         []string       `json:"recommended_reviews"`
	SentimentSummary           map[string]int `json:"sentiment_summary"`
}
