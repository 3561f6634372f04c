package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"stockbuddy-backend/internal/shared/cache"
	"stockbuddy-backend/internal/shared/telemetry"
)

const (
	maxAttempts = 3
	minBackoff  = 1 * time.Second
	maxBackoff  = 10 * time.Second

	fundamentalsTTL = 15 * time.Minute
	closesTTL       = 1 * time.Hour
)

// AlphaVantage implements Gateway against the Alpha Vantage HTTP API.
type AlphaVantage struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      *cache.Client

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewAlphaVantage constructs the gateway. cache may be nil.
func NewAlphaVantage(apiKey, baseURL string, c *cache.Client) *AlphaVantage {
	return &AlphaVantage{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      c,
		sleep:      sleepCtx,
	}
}

// GetFundamentals fetches overview, quote and next earnings date. Missing
// fields stay zero; only configuration and exhausted-retry transport
// failures surface as errors.
func (g *AlphaVantage) GetFundamentals(ctx context.Context, ticker string) (Fundamentals, error) {
	if strings.TrimSpace(g.apiKey) == "" {
		return Fundamentals{}, ErrMissingAPIKey
	}
	ticker = strings.ToUpper(ticker)

	cacheKey := "fundamentals:" + ticker
	var cached Fundamentals
	if g.cache.Get(ctx, cacheKey, &cached) {
		return cached, nil
	}

	result := Fundamentals{Ticker: ticker, Currency: "USD"}

	overview, err := g.getJSON(ctx, url.Values{"function": {"OVERVIEW"}, "symbol": {ticker}})
	if err != nil {
		return Fundamentals{}, err
	}
	applyOverview(&result, overview)

	if quote, err := g.getJSON(ctx, url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {ticker}}); err == nil {
		applyQuote(&result, quote)
	} else {
		telemetry.Warn("marketdata.quote_failed", map[string]any{"ticker": ticker, "error": err.Error()})
	}

	// Earnings calendar is best effort; its absence never fails the call.
	if cal, err := g.getJSON(ctx, url.Values{"function": {"EARNINGS_CALENDAR"}, "symbol": {ticker}, "horizon": {"3month"}}); err == nil {
		applyEarningsCalendar(&result, cal)
	} else {
		telemetry.Warn("marketdata.earnings_calendar_failed", map[string]any{"ticker": ticker, "error": err.Error()})
	}

	g.cache.Set(ctx, cacheKey, result, fundamentalsTTL)
	return result, nil
}

// GetLatestPrice fetches the current price via GLOBAL_QUOTE. A quote the
// upstream cannot produce yields (nil, nil).
func (g *AlphaVantage) GetLatestPrice(ctx context.Context, ticker string) (*float64, error) {
	if strings.TrimSpace(g.apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	data, err := g.getJSON(ctx, url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {strings.ToUpper(ticker)}})
	if err != nil {
		return nil, err
	}
	var f Fundamentals
	applyQuote(&f, data)
	return f.Price, nil
}

// DailyCloses returns the trailing daily closing prices, oldest first.
func (g *AlphaVantage) DailyCloses(ctx context.Context, ticker string) ([]DailyClose, error) {
	if strings.TrimSpace(g.apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	ticker = strings.ToUpper(ticker)

	cacheKey := "closes:" + ticker
	var cached []DailyClose
	if g.cache.Get(ctx, cacheKey, &cached) {
		return cached, nil
	}

	data, err := g.getJSON(ctx, url.Values{
		"function":   {"TIME_SERIES_DAILY"},
		"symbol":     {ticker},
		"outputsize": {"full"},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Series map[string]struct {
			Close string `json:"4. close"`
		} `json:"Time Series (Daily)"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse daily series: %w", err)
	}

	closes := make([]DailyClose, 0, len(payload.Series))
	for day, entry := range payload.Series {
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			continue
		}
		price, err := strconv.ParseFloat(entry.Close, 64)
		if err != nil {
			continue
		}
		closes = append(closes, DailyClose{Date: date, Close: price})
	}
	sort.Slice(closes, func(i, j int) bool { return closes[i].Date.Before(closes[j].Date) })

	// Roughly one year of trading days.
	if len(closes) > 252 {
		closes = closes[len(closes)-252:]
	}

	g.cache.Set(ctx, cacheKey, closes, closesTTL)
	return closes, nil
}

// getJSON performs one API call with retries. Rate-limit notes are treated
// as an empty payload, not a failure; Alpha Vantage returns them with 200.
func (g *AlphaVantage) getJSON(ctx context.Context, params url.Values) (json.RawMessage, error) {
	params.Set("apikey", g.apiKey)
	endpoint := g.baseURL + "?" + params.Encode()

	var lastErr error
	backoff := minBackoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		body, err := g.fetchOnce(ctx, endpoint)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		if err := g.sleep(ctx, backoff); err != nil {
			return nil, err
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	return nil, fmt.Errorf("alpha vantage request failed: %w", lastErr)
}

func (g *AlphaVantage) fetchOnce(ctx context.Context, endpoint string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}
	return json.RawMessage(body), nil
}

func applyOverview(out *Fundamentals, raw json.RawMessage) {
	var data map[string]string
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}
	if note, ok := rateLimitNote(raw); ok {
		telemetry.Warn("marketdata.rate_limited", map[string]any{"ticker": out.Ticker, "note": note})
		return
	}
	out.Name = data["Name"]
	out.Sector = data["Sector"]
	out.MarketCap = data["MarketCapitalization"]
	out.PERatio = data["PERatio"]
	out.Beta = parseOptionalFloat(data["Beta"])
	out.DividendYield = parseOptionalFloat(data["DividendYield"])
}

func applyQuote(out *Fundamentals, raw json.RawMessage) {
	var payload struct {
		Quote map[string]string `json:"Global Quote"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	out.Price = parseOptionalFloat(payload.Quote["05. price"])
	out.PreviousClose = parseOptionalFloat(payload.Quote["08. previous close"])
}

func applyEarningsCalendar(out *Fundamentals, raw json.RawMessage) {
	var payload struct {
		Calendar []struct {
			ReportDate string `json:"reportDate"`
		} `json:"earningsCalendar"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}
	if len(payload.Calendar) > 0 {
		out.NextEarningsDate = payload.Calendar[0].ReportDate
	}
}

func rateLimitNote(raw json.RawMessage) (string, bool) {
	var note struct {
		Note        string `json:"Note"`
		Information string `json:"Information"`
	}
	if err := json.Unmarshal(raw, &note); err != nil {
		return "", false
	}
	if note.Note != "" {
		return note.Note, true
	}
	if note.Information != "" {
		return note.Information, true
	}
	return "", false
}

func parseOptionalFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "None" || raw == "-" {
		return nil
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &val
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Gateway = (*AlphaVantage)(nil)
