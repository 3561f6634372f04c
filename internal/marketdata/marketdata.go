package marketdata

import (
	"context"
	"errors"
	"time"
)

// Fundamentals aggregates company overview, quote and earnings-calendar
// data for a ticker. Any field can be independently absent when the
// upstream lacks it or a rate limit was hit.
type Fundamentals struct {
	Ticker           string   `json:"ticker"`
	Name             string   `json:"name,omitempty"`
	Price            *float64 `json:"price"`
	PreviousClose    *float64 `json:"previous_close,omitempty"`
	Currency         string   `json:"currency"`
	Sector           string   `json:"sector,omitempty"`
	Beta             *float64 `json:"beta,omitempty"`
	DividendYield    *float64 `json:"dividend_yield,omitempty"`
	NextEarningsDate string   `json:"next_earnings_date,omitempty"`
	MarketCap        string   `json:"market_cap,omitempty"`
	PERatio          string   `json:"pe_ratio,omitempty"`
}

// DailyClose is one day of closing-price history, oldest-first in slices.
type DailyClose struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// ErrMissingAPIKey indicates the gateway has no credential configured.
var ErrMissingAPIKey = errors.New("missing ALPHA_VANTAGE_API_KEY in environment")

// Gateway fetches market data for a ticker.
type Gateway interface {
	GetFundamentals(ctx context.Context, ticker string) (Fundamentals, error)
	GetLatestPrice(ctx context.Context, ticker string) (*float64, error)
	DailyCloses(ctx context.Context, ticker string) ([]DailyClose, error)
}
