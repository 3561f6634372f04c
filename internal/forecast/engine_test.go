package forecast

import (
	"errors"
	"math"
	"testing"
	"time"

	"stockbuddy-backend/internal/marketdata"
)

// syntheticCloses produces n days of history following price(i) = start + slope*i.
func syntheticCloses(n int, start, slope float64) []marketdata.DailyClose {
	base := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	closes := make([]marketdata.DailyClose, n)
	for i := range closes {
		closes[i] = marketdata.DailyClose{
			Date:  base.AddDate(0, 0, i),
			Close: start + slope*float64(i),
		}
	}
	return closes
}

func TestBuildRequiresSixtyDays(t *testing.T) {
	_, err := Build("AAPL", syntheticCloses(59, 100, 0.1), 30)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}
}

func TestBuildLinearTrendProjectsForward(t *testing.T) {
	result, err := Build("aapl", syntheticCloses(200, 100, 1.2), 30)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.Ticker != "AAPL" {
		t.Fatalf("ticker = %q", result.Ticker)
	}
	if result.ForecastDays != 30 || len(result.Forecast.Prices) != 30 {
		t.Fatalf("forecast length = %d", len(result.Forecast.Prices))
	}
	// A perfectly linear uptrend fits exactly.
	if math.Abs(result.ModelInfo.SlopePerDay-1.2) > 0.01 {
		t.Fatalf("slope = %v", result.ModelInfo.SlopePerDay)
	}
	if result.ModelInfo.RSquared < 0.999 {
		t.Fatalf("r_squared = %v", result.ModelInfo.RSquared)
	}
	if result.PredictedPrice <= result.CurrentPrice {
		t.Fatalf("uptrend should predict higher: current %v predicted %v", result.CurrentPrice, result.PredictedPrice)
	}
	if result.TrendSignal != "Bullish" {
		t.Fatalf("trend = %q", result.TrendSignal)
	}
}

func TestBuildFlatSeriesIsNeutral(t *testing.T) {
	result, err := Build("KO", syntheticCloses(120, 60, 0), 30)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// All-zero deltas leave RSI pegged high, so the overbought damping
	// kicks in and shaves exactly 5% off the flat projection.
	if result.PctChange != -5 {
		t.Fatalf("pct change = %v, want -5", result.PctChange)
	}
	if result.TrendSignal != "Neutral" {
		t.Fatalf("trend = %q", result.TrendSignal)
	}
	if result.MA20 != 60 || result.MA50 != 60 {
		t.Fatalf("moving averages = %v/%v", result.MA20, result.MA50)
	}
}

func TestBuildConfidenceBandWidens(t *testing.T) {
	// Alternate around a downtrend so the Bollinger deviation is non-zero.
	closes := syntheticCloses(150, 200, -0.5)
	for i := range closes {
		if i%2 == 0 {
			closes[i].Close += 2
		} else {
			closes[i].Close -= 2
		}
	}
	result, err := Build("XOM", closes, 60)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	firstWidth := result.Forecast.UpperBound[0] - result.Forecast.LowerBound[0]
	lastWidth := result.Forecast.UpperBound[59] - result.Forecast.LowerBound[59]
	if lastWidth <= firstWidth {
		t.Fatalf("band should widen: first %v last %v", firstWidth, lastWidth)
	}
	for i, lower := range result.Forecast.LowerBound {
		if lower < 0 {
			t.Fatalf("lower bound %d negative: %v", i, lower)
		}
	}
	if result.TrendSignal != "Bearish" {
		t.Fatalf("trend = %q", result.TrendSignal)
	}
}

func TestBuildOverboughtDampensProjection(t *testing.T) {
	// Monotonic rise means every delta is a gain: RSI pegs at 100.
	rising := syntheticCloses(130, 100, 1)
	result, err := Build("NVDA", rising, 10)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.RSI != 100 {
		t.Fatalf("rsi = %v, want 100", result.RSI)
	}
	recentN := 126.0
	slope, intercept := 1.0, result.CurrentPrice-1*(recentN-1)
	raw := slope*(recentN+1) + intercept
	// 0.95 momentum for overbought, 0.98 mean reversion for running >10% above MA50.
	want := math.Round(raw*0.95*0.98*100) / 100
	if math.Abs(result.Forecast.Prices[0]-want) > 0.5 {
		t.Fatalf("first projection = %v, want about %v", result.Forecast.Prices[0], want)
	}
}

func TestBuildHistoricalWindowCapped(t *testing.T) {
	result, err := Build("AAPL", syntheticCloses(252, 100, 0.1), 7)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(result.Historical.Prices) != 90 {
		t.Fatalf("historical length = %d, want 90", len(result.Historical.Prices))
	}
}
