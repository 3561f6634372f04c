package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestGateway(url string) *AlphaVantage {
	g := NewAlphaVantage("test-key", url, nil)
	g.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return g
}

func stubHandler(t *testing.T, responses map[string]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		fn := r.URL.Query().Get("function")
		body, ok := responses[fn]
		if !ok {
			t.Errorf("unexpected function %q", fn)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestGetFundamentalsMergesSources(t *testing.T) {
	srv := httptest.NewServer(stubHandler(t, map[string]string{
		"OVERVIEW": `{
			"Name": "Apple Inc",
			"Sector": "TECHNOLOGY",
			"MarketCapitalization": "3000000000000",
			"PERatio": "29.5",
			"Beta": "1.25",
			"DividendYield": "0.0055"
		}`,
		"GLOBAL_QUOTE": `{"Global Quote": {"05. price": "195.30", "08. previous close": "193.10"}}`,
		"EARNINGS_CALENDAR": `{"earningsCalendar": [{"reportDate": "2026-10-29"}]}`,
	}))
	t.Cleanup(srv.Close)

	f, err := newTestGateway(srv.URL).GetFundamentals(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("GetFundamentals: %v", err)
	}
	if f.Ticker != "AAPL" {
		t.Fatalf("ticker = %q", f.Ticker)
	}
	if f.Name != "Apple Inc" || f.Sector != "TECHNOLOGY" {
		t.Fatalf("overview fields = %q/%q", f.Name, f.Sector)
	}
	if f.Price == nil || *f.Price != 195.30 {
		t.Fatalf("price = %v", f.Price)
	}
	if f.PreviousClose == nil || *f.PreviousClose != 193.10 {
		t.Fatalf("previous close = %v", f.PreviousClose)
	}
	if f.Beta == nil || *f.Beta != 1.25 {
		t.Fatalf("beta = %v", f.Beta)
	}
	if f.NextEarningsDate != "2026-10-29" {
		t.Fatalf("next earnings = %q", f.NextEarningsDate)
	}
}

func TestGetFundamentalsRateLimitedOverviewLeavesFieldsEmpty(t *testing.T) {
	srv := httptest.NewServer(stubHandler(t, map[string]string{
		"OVERVIEW":          `{"Note": "API call frequency exceeded"}`,
		"GLOBAL_QUOTE":      `{"Global Quote": {}}`,
		"EARNINGS_CALENDAR": `{}`,
	}))
	t.Cleanup(srv.Close)

	f, err := newTestGateway(srv.URL).GetFundamentals(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetFundamentals: %v", err)
	}
	if f.Sector != "" || f.Price != nil || f.Beta != nil {
		t.Fatalf("rate-limited response should leave fields empty, got %+v", f)
	}
}

func TestGetFundamentalsMissingKey(t *testing.T) {
	g := NewAlphaVantage("", "http://unused", nil)
	if _, err := g.GetFundamentals(context.Background(), "AAPL"); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestGetFundamentalsRetriesServerErrors(t *testing.T) {
	var overviewCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("function") {
		case "OVERVIEW":
			overviewCalls++
			if overviewCalls < 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"Sector": "ENERGY"}`))
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	t.Cleanup(srv.Close)

	f, err := newTestGateway(srv.URL).GetFundamentals(context.Background(), "XOM")
	if err != nil {
		t.Fatalf("GetFundamentals: %v", err)
	}
	if f.Sector != "ENERGY" {
		t.Fatalf("sector = %q", f.Sector)
	}
	if overviewCalls != 2 {
		t.Fatalf("overview calls = %d, want 2", overviewCalls)
	}
}

func TestDailyClosesSortedOldestFirst(t *testing.T) {
	srv := httptest.NewServer(stubHandler(t, map[string]string{
		"TIME_SERIES_DAILY": `{"Time Series (Daily)": {
			"2026-08-28": {"4. close": "103.00"},
			"2026-08-26": {"4. close": "101.00"},
			"2026-08-27": {"4. close": "102.00"}
		}}`,
	}))
	t.Cleanup(srv.Close)

	closes, err := newTestGateway(srv.URL).DailyCloses(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("DailyCloses: %v", err)
	}
	if len(closes) != 3 {
		t.Fatalf("len = %d", len(closes))
	}
	if closes[0].Close != 101.00 || closes[2].Close != 103.00 {
		t.Fatalf("closes not sorted: %+v", closes)
	}
}

func TestGetLatestPriceUnparseableQuote(t *testing.T) {
	srv := httptest.NewServer(stubHandler(t, map[string]string{
		"GLOBAL_QUOTE": `{"Global Quote": {"05. price": "not-a-number"}}`,
	}))
	t.Cleanup(srv.Close)

	price, err := newTestGateway(srv.URL).GetLatestPrice(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetLatestPrice: %v", err)
	}
	if price != nil {
		t.Fatalf("price = %v, want nil", price)
	}
}
