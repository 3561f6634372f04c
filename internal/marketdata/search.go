package marketdata

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

// SearchResult is one ticker match from the reference-ticker index.
type SearchResult struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// SearchGateway finds tickers by symbol or company name.
type SearchGateway interface {
	SearchTickers(ctx context.Context, query string, limit int) []SearchResult
}

// SymbolSearch implements SearchGateway against the Massive reference
// tickers API. Search is a convenience surface: every failure mode, the
// missing credential included, degrades to an empty result set.
type SymbolSearch struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewSymbolSearch constructs the gateway. baseURL defaults to the hosted API.
func NewSymbolSearch(apiKey, baseURL string) *SymbolSearch {
	if baseURL == "" {
		baseURL = "https://api.massive.com/v3/reference/tickers"
	}
	return &SymbolSearch{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (g *SymbolSearch) SearchTickers(ctx context.Context, query string, limit int) []SearchResult {
	if strings.TrimSpace(g.apiKey) == "" {
		telemetry.Warn("marketdata.search_disabled", map[string]any{"reason": "missing MASSIVE_API_KEY"})
		return []SearchResult{}
	}

	params := url.Values{
		"search": {query},
		"limit":  {strconv.Itoa(limit)},
		"active": {"true"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return []SearchResult{}
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		telemetry.Warn("marketdata.search_failed", map[string]any{"query": query, "error": err.Error()})
		return []SearchResult{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		telemetry.Warn("marketdata.search_failed", map[string]any{"query": query, "status": resp.StatusCode})
		return []SearchResult{}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return []SearchResult{}
	}

	var payload struct {
		Results []struct {
			Ticker string `json:"ticker"`
			Name   string `json:"name"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		telemetry.Warn("marketdata.search_failed", map[string]any{"query": query, "error": err.Error()})
		return []SearchResult{}
	}

	results := make([]SearchResult, 0, len(payload.Results))
	for _, item := range payload.Results {
		name := item.Name
		if name == "" {
			name = "Unknown"
		}
		results = append(results, SearchResult{Ticker: item.Ticker, Name: name})
	}
	return results
}

var _ SearchGateway = (*SymbolSearch)(nil)
