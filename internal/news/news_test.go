package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetStockNewsExtractsTickerSentiment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tickers") != "AAPL" {
			t.Errorf("tickers = %q", r.URL.Query().Get("tickers"))
		}
		_, _ = w.Write([]byte(`{"feed": [
			{
				"title": "Apple beats estimates",
				"url": "https://example.com/a",
				"source": "Newswire",
				"time_published": "20260830T120000",
				"summary": "Strong quarter.",
				"overall_sentiment_score": "0.32",
				"overall_sentiment_label": "Somewhat-Bullish",
				"ticker_sentiment": [
					{"ticker": "MSFT", "ticker_sentiment_score": "0.1", "ticker_sentiment_label": "Neutral", "relevance_score": "0.2"},
					{"ticker": "AAPL", "ticker_sentiment_score": "0.45", "ticker_sentiment_label": "Bullish", "relevance_score": "0.9"}
				]
			},
			{
				"title": "Markets flat",
				"url": "https://example.com/b",
				"source": "Newswire",
				"time_published": "20260830T110000",
				"summary": "Quiet day.",
				"ticker_sentiment": []
			}
		]}`))
	}))
	t.Cleanup(srv.Close)

	g := NewAlphaVantage("test-key", srv.URL)
	articles := g.GetStockNews(context.Background(), "aapl", 10)
	if len(articles) != 2 {
		t.Fatalf("len = %d", len(articles))
	}
	if articles[0].TickerSentimentScore != 0.45 || articles[0].TickerSentimentLabel != "Bullish" {
		t.Fatalf("ticker sentiment = %+v", articles[0])
	}
	if articles[0].OverallSentimentScore != 0.32 {
		t.Fatalf("overall sentiment = %v", articles[0].OverallSentimentScore)
	}
	if articles[1].TickerSentimentLabel != "Neutral" || articles[1].TickerSentimentScore != 0 {
		t.Fatalf("missing breakdown should default to neutral, got %+v", articles[1])
	}
}

func TestGetStockNewsFailuresYieldEmptySlice(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"rate limited", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Note": "API call frequency exceeded"}`))
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`not json`)) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			t.Cleanup(srv.Close)
			g := NewAlphaVantage("test-key", srv.URL)
			articles := g.GetStockNews(context.Background(), "AAPL", 10)
			if articles == nil || len(articles) != 0 {
				t.Fatalf("articles = %v, want empty slice", articles)
			}
		})
	}
}

func TestGetStockNewsMissingKey(t *testing.T) {
	g := NewAlphaVantage("", "http://unused")
	if got := g.GetStockNews(context.Background(), "AAPL", 10); len(got) != 0 {
		t.Fatalf("articles = %v, want empty", got)
	}
}

func TestGetStockNewsRespectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"feed": [
			{"title": "a"}, {"title": "b"}, {"title": "c"}
		]}`))
	}))
	t.Cleanup(srv.Close)

	g := NewAlphaVantage("test-key", srv.URL)
	if got := g.GetStockNews(context.Background(), "AAPL", 2); len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
}
