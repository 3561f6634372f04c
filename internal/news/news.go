package news

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stockbuddy-backend/internal/shared/telemetry"
)

// Article is one news item with sentiment, both overall and ticker-specific.
type Article struct {
	Title                 string  `json:"title"`
	URL                   string  `json:"url"`
	Source                string  `json:"source"`
	PublishedAt           string  `json:"published_at"`
	Summary               string  `json:"summary"`
	BannerImage           string  `json:"banner_image,omitempty"`
	OverallSentimentScore float64 `json:"overall_sentiment_score"`
	OverallSentimentLabel string  `json:"overall_sentiment_label"`
	TickerSentimentScore  float64 `json:"ticker_sentiment_score"`
	TickerSentimentLabel  string  `json:"ticker_sentiment_label"`
	TickerRelevance       float64 `json:"ticker_relevance"`
}

// Gateway fetches recent news for a ticker.
type Gateway interface {
	GetStockNews(ctx context.Context, ticker string, limit int) []Article
}

// AlphaVantage implements Gateway against the NEWS_SENTIMENT endpoint.
// Every failure mode yields an empty slice; news absence must never abort
// a workflow.
type AlphaVantage struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewAlphaVantage constructs the news gateway.
func NewAlphaVantage(apiKey, baseURL string) *AlphaVantage {
	return &AlphaVantage{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type feedItem struct {
	Title                 string `json:"title"`
	URL                   string `json:"url"`
	Source                string `json:"source"`
	TimePublished         string `json:"time_published"`
	Summary               string `json:"summary"`
	BannerImage           string `json:"banner_image"`
	OverallSentimentScore any    `json:"overall_sentiment_score"`
	OverallSentimentLabel string `json:"overall_sentiment_label"`
	TickerSentiment       []struct {
		Ticker               string `json:"ticker"`
		TickerSentimentScore any    `json:"ticker_sentiment_score"`
		TickerSentimentLabel string `json:"ticker_sentiment_label"`
		RelevanceScore       any    `json:"relevance_score"`
	} `json:"ticker_sentiment"`
}

// GetStockNews fetches up to limit recent articles for a ticker.
func (g *AlphaVantage) GetStockNews(ctx context.Context, ticker string, limit int) []Article {
	if strings.TrimSpace(g.apiKey) == "" {
		telemetry.Warn("news.missing_api_key", map[string]any{"ticker": ticker})
		return []Article{}
	}
	ticker = strings.ToUpper(ticker)
	if limit <= 0 {
		limit = 10
	}
	requestLimit := limit
	if requestLimit > 50 {
		requestLimit = 50
	}

	params := url.Values{
		"function": {"NEWS_SENTIMENT"},
		"tickers":  {ticker},
		"limit":    {strconv.Itoa(requestLimit)},
		"apikey":   {g.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return []Article{}
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		telemetry.Warn("news.fetch_failed", map[string]any{"ticker": ticker, "error": err.Error()})
		return []Article{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		telemetry.Warn("news.fetch_failed", map[string]any{"ticker": ticker, "status": resp.StatusCode})
		return []Article{}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []Article{}
	}

	var payload struct {
		Note        string     `json:"Note"`
		Information string     `json:"Information"`
		Feed        []feedItem `json:"feed"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		telemetry.Warn("news.parse_failed", map[string]any{"ticker": ticker, "error": err.Error()})
		return []Article{}
	}
	if payload.Note != "" || payload.Information != "" {
		telemetry.Warn("news.rate_limited", map[string]any{
			"ticker": ticker,
			"note":   firstNonEmpty(payload.Note, payload.Information),
		})
		return []Article{}
	}

	articles := make([]Article, 0, limit)
	for _, item := range payload.Feed {
		if len(articles) >= limit {
			break
		}
		article := Article{
			Title:                 item.Title,
			URL:                   item.URL,
			Source:                item.Source,
			PublishedAt:           item.TimePublished,
			Summary:               item.Summary,
			BannerImage:           item.BannerImage,
			OverallSentimentScore: safeFloat(item.OverallSentimentScore),
			OverallSentimentLabel: item.OverallSentimentLabel,
			TickerSentimentLabel:  "Neutral",
		}
		for _, ts := range item.TickerSentiment {
			if strings.ToUpper(ts.Ticker) != ticker {
				continue
			}
			article.TickerSentimentScore = safeFloat(ts.TickerSentimentScore)
			article.TickerSentimentLabel = ts.TickerSentimentLabel
			article.TickerRelevance = safeFloat(ts.RelevanceScore)
			break
		}
		articles = append(articles, article)
	}
	return articles
}

func safeFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var _ Gateway = (*AlphaVantage)(nil)
