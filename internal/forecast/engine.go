package forecast

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"stockbuddy-backend/internal/marketdata"
)

// MinHistoryDays is the minimum closing-price history the model needs.
const MinHistoryDays = 60

// trendWindow is roughly six months of trading days.
const trendWindow = 126

// ErrInsufficientData indicates there is not enough price history to fit
// the model.
var ErrInsufficientData = errors.New("insufficient price history")

// Series is a dated value series for charting.
type Series struct {
	Dates  []string  `json:"dates"`
	Prices []float64 `json:"prices"`
}

// Band extends Series with confidence bounds.
type Band struct {
	Dates      []string  `json:"dates"`
	Prices     []float64 `json:"prices"`
	UpperBound []float64 `json:"upper_bound"`
	LowerBound []float64 `json:"lower_bound"`
}

// ModelInfo describes the fitted model.
type ModelInfo struct {
	Method         string  `json:"method"`
	TrainingPeriod string  `json:"training_period"`
	SlopePerDay    float64 `json:"slope_per_day"`
	RSquared       float64 `json:"r_squared"`
}

// Result is the full forecast payload.
type Result struct {
	Ticker         string    `json:"ticker"`
	CurrentPrice   float64   `json:"current_price"`
	ForecastDays   int       `json:"forecast_days"`
	TrendSignal    string    `json:"trend_signal"`
	PredictedPrice float64   `json:"predicted_price"`
	PriceChange    float64   `json:"price_change"`
	PctChange      float64   `json:"pct_change"`
	RSI            float64   `json:"rsi"`
	MA20           float64   `json:"ma_20"`
	MA50           float64   `json:"ma_50"`
	Historical     Series    `json:"historical"`
	Forecast       Band      `json:"forecast"`
	ModelInfo      ModelInfo `json:"model_info"`
}

// Build fits a linear trend to the trailing six months of closes, layers
// RSI momentum and mean-reversion adjustments on it, and projects forward
// with a confidence band that widens with the horizon. Pure computation,
// no I/O.
func Build(ticker string, closes []marketdata.DailyClose, forecastDays int) (Result, error) {
	if len(closes) < MinHistoryDays {
		return Result{}, fmt.Errorf("%w for %s (need at least %d days)", ErrInsufficientData, ticker, MinHistoryDays)
	}

	prices := make([]float64, len(closes))
	for i, c := range closes {
		prices[i] = c.Close
	}

	recentN := trendWindow
	if len(prices) < recentN {
		recentN = len(prices)
	}
	recent := prices[len(prices)-recentN:]
	slope, intercept := fitLine(recent)

	ma20 := mean(prices[len(prices)-20:])
	ma50 := mean(prices[len(prices)-50:])
	bbStd := stddev(prices[len(prices)-20:])
	rsi := computeRSI(prices, 14)

	// Overbought dampens the projection, oversold boosts it.
	momentumFactor := 1.0
	if rsi > 70 {
		momentumFactor = 0.95
	} else if rsi < 30 {
		momentumFactor = 1.05
	}

	currentPrice := prices[len(prices)-1]
	maFactor := 1.0
	if currentPrice > ma50*1.1 {
		maFactor = 0.98
	} else if currentPrice < ma50*0.9 {
		maFactor = 1.02
	}

	lastDate := closes[len(closes)-1].Date
	band := Band{
		Dates:      make([]string, 0, forecastDays),
		Prices:     make([]float64, 0, forecastDays),
		UpperBound: make([]float64, 0, forecastDays),
		LowerBound: make([]float64, 0, forecastDays),
	}
	for i := 1; i <= forecastDays; i++ {
		futureX := float64(recentN + i)
		adjusted := (slope*futureX + intercept) * momentumFactor * maFactor

		uncertainty := bbStd * math.Sqrt(float64(i)/20)
		upper := adjusted + 2*uncertainty
		lower := math.Max(adjusted-2*uncertainty, 0)

		band.Dates = append(band.Dates, lastDate.AddDate(0, 0, i).Format("2006-01-02"))
		band.Prices = append(band.Prices, round2(adjusted))
		band.UpperBound = append(band.UpperBound, round2(upper))
		band.LowerBound = append(band.LowerBound, round2(lower))
	}

	histStart := len(closes) - 90
	if histStart < 0 {
		histStart = 0
	}
	hist := Series{}
	for _, c := range closes[histStart:] {
		hist.Dates = append(hist.Dates, c.Date.Format("2006-01-02"))
		hist.Prices = append(hist.Prices, round2(c.Close))
	}

	predicted := band.Prices[len(band.Prices)-1]
	priceChange := predicted - currentPrice
	pctChange := 0.0
	if currentPrice > 0 {
		pctChange = priceChange / currentPrice * 100
	}
	trendSignal := "Neutral"
	if pctChange > 5 {
		trendSignal = "Bullish"
	} else if pctChange < -5 {
		trendSignal = "Bearish"
	}

	return Result{
		Ticker:         strings.ToUpper(ticker),
		CurrentPrice:   round2(currentPrice),
		ForecastDays:   forecastDays,
		TrendSignal:    trendSignal,
		PredictedPrice: predicted,
		PriceChange:    round2(priceChange),
		PctChange:      round2(pctChange),
		RSI:            math.Round(rsi*10) / 10,
		MA20:           round2(ma20),
		MA50:           round2(ma50),
		Historical:     hist,
		Forecast:       band,
		ModelInfo: ModelInfo{
			Method:         "Linear Regression + MA + RSI + Bollinger Bands",
			TrainingPeriod: fmt.Sprintf("%d trading days", recentN),
			SlopePerDay:    round4(slope),
			RSquared:       round4(rSquared(recent, slope, intercept)),
		},
	}, nil
}

// fitLine is a least-squares fit of y over x = 0..n-1.
func fitLine(y []float64) (slope, intercept float64) {
	n := float64(len(y))
	var sumX, sumY, sumXY, sumXX float64
	for i, v := range y {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, mean(y)
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

func rSquared(y []float64, slope, intercept float64) float64 {
	m := mean(y)
	var ssRes, ssTot float64
	for i, v := range y {
		fit := slope*float64(i) + intercept
		ssRes += (v - fit) * (v - fit)
		ssTot += (v - m) * (v - m)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// computeRSI is the simple-average RSI over the trailing period deltas.
func computeRSI(prices []float64, period int) float64 {
	deltas := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		deltas = append(deltas, prices[i]-prices[i-1])
	}
	if len(deltas) < period {
		period = len(deltas)
	}
	recent := deltas[len(deltas)-period:]
	var gain, loss float64
	for _, d := range recent {
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	gain /= float64(period)
	loss /= float64(period)

	rs := 100.0
	if loss > 0 {
		rs = gain / loss
	}
	return 100 - 100/(1+rs)
}

func mean(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

// stddev is the sample standard deviation.
func stddev(v []float64) float64 {
	m := mean(v)
	var sum float64
	for _, x := range v {
		sum += (x - m) * (x - m)
	}
	return math.Sqrt(sum / float64(len(v)-1))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
