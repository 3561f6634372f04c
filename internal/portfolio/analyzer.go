package portfolio

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"stockbuddy-backend/internal/earnings"
)

// upcomingEarningsWindow is how far ahead a scheduled earnings date still
// counts as "coming up" for review recommendations.
const upcomingEarningsWindow = 30 * 24 * time.Hour

// RecordSource looks up the latest earnings record per (owner, ticker).
type RecordSource interface {
	LatestByTicker(ctx context.Context, userID, ticker string) (earnings.Record, error)
}

// Analyzer derives read-only aggregates over a portfolio's holdings.
// Sentiment comes from each holding's most recent earnings record.
type Analyzer struct {
	Records RecordSource
}

// Snapshot computes the current aggregate for a set of holdings. Holdings
// without a price contribute nothing to value or concentration but still
// count as positions.
func (a *Analyzer) Snapshot(ctx context.Context, userID string, portfolioID int64, holdings []Holding) (Snapshot, error) {
	snap := Snapshot{PortfolioID: portfolioID, NumPositions: len(holdings)}
	if len(holdings) == 0 {
		return snap, nil
	}

	total := decimal.Zero
	values := make([]decimal.Decimal, 0, len(holdings))
	for _, h := range holdings {
		v := holdingValue(h)
		values = append(values, v)
		total = total.Add(v)
	}

	var maxWeight decimal.Decimal
	if total.IsPositive() {
		for _, v := range values {
			if w := v.Div(total); w.GreaterThan(maxWeight) {
				maxWeight = w
			}
		}
	}

	var sentimentSum float64
	var withEarnings int
	for _, h := range holdings {
		rec, err := a.Records.LatestByTicker(ctx, userID, h.Ticker)
		if errors.Is(err, earnings.ErrNotFound) {
			continue
		}
		if err != nil {
			return Snapshot{}, err
		}
		sentimentSum += rec.SentimentScore
		withEarnings++
	}

	avgSentiment := 0.0
	if withEarnings > 0 {
		avgSentiment = sentimentSum / float64(withEarnings)
		snap.AvgSentimentScore = &avgSentiment
	}

	snap.TotalValue = total.InexactFloat64()
	snap.ConcentrationRisk = maxWeight.InexactFloat64()
	snap.RecentEarningsCoverage = float64(withEarnings) / float64(len(holdings))
	snap.HealthScore = healthScore(snap.ConcentrationRisk, len(holdings), avgSentiment, snap.TotalValue)
	return snap, nil
}

// SectorAllocations groups portfolio value by sector, largest first.
// Holdings without a sector fall under "Unknown".
func (a *Analyzer) SectorAllocations(holdings []Holding) []SectorAllocation {
	total := decimal.Zero
	bySector := make(map[string]decimal.Decimal)
	for _, h := range holdings {
		v := holdingValue(h)
		if v.IsZero() {
			continue
		}
		sector := h.Sector
		if sector == "" {
			sector = "Unknown"
		}
		bySector[sector] = bySector[sector].Add(v)
		total = total.Add(v)
	}
	if !total.IsPositive() {
		return []SectorAllocation{}
	}

	out := make([]SectorAllocation, 0, len(bySector))
	for sector, v := range bySector {
		out = append(out, SectorAllocation{
			Sector: sector,
			Weight: v.Div(total).Round(4).InexactFloat64(),
			Value:  v.Round(2).InexactFloat64(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value == out[j].Value {
			return out[i].Sector < out[j].Sector
		}
		return out[i].Value > out[j].Value
	})
	return out
}

// Insights buckets each holding by its latest earnings sentiment and flags
// tickers with earnings scheduled in the next month.
func (a *Analyzer) Insights(ctx context.Context, userID string, holdings []Holding) (EarningsInsights, error) {
	insights := EarningsInsights{
		HoldingsWithRecentEarnings: []string{},
		PositiveOutlooks:           []string{},
		RiskWarnings:               []string{},
		RecommendedReviews:         []string{},
		SentimentSummary: map[string]int{
			"positive": 0,
			"neutral":  0,
			"negative": 0,
			"no_data":  0,
		},
	}

	now := time.Now().UTC()
	for _, h := range holdings {
		rec, err := a.Records.LatestByTicker(ctx, userID, h.Ticker)
		switch {
		case errors.Is(err, earnings.ErrNotFound):
			insights.SentimentSummary["no_data"]++
		case err != nil:
			return EarningsInsights{}, err
		default:
			insights.HoldingsWithRecentEarnings = append(insights.HoldingsWithRecentEarnings, h.Ticker)
			switch {
			case rec.SentimentScore > 0.2:
				insights.PositiveOutlooks = append(insights.PositiveOutlooks, h.Ticker)
				insights.SentimentSummary["positive"]++
			case rec.SentimentScore < -0.1:
				insights.RiskWarnings = append(insights.RiskWarnings, h.Ticker)
				insights.SentimentSummary["negative"]++
			default:
				insights.SentimentSummary["neutral"]++
			}
		}

		if h.NextEarningsDate != nil && h.NextEarningsDate.Sub(now) < upcomingEarningsWindow {
			insights.RecommendedReviews = append(insights.RecommendedReviews, h.Ticker)
		}
	}
	return insights, nil
}

func holdingValue(h Holding) decimal.Decimal {
	if h.LastPrice == nil || h.Shares <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*h.LastPrice).Mul(decimal.NewFromFloat(h.Shares))
}

// healthScore grades a portfolio 0 to 100 from concentration, breadth,
// sentiment and size.
func healthScore(concentrationRisk float64, numPositions int, avgSentiment, totalValue float64) int {
	score := 100

	switch {
	case concentrationRisk > 0.35:
		score -= 30
	case concentrationRisk > 0.25:
		score -= 20
	case concentrationRisk > 0.15:
		score -= 10
	}

	switch {
	case numPositions < 5:
		score -= 15
	case numPositions < 10:
		score -= 5
	}

	switch {
	case avgSentiment > 0.3:
		score += 10
	case avgSentiment < -0.2:
		score -= 15
	}

	switch {
	case totalValue > 100000:
		score += 5
	case totalValue < 10000:
		score -= 5
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
