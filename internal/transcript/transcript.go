package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stockbuddy-backend/internal/shared/telemetry"
)

// ErrTransport indicates the FMP API could not be reached or rejected the
// request. "No transcript for this company" is a normal outcome, not an
// error, and comes back as ("", nil).
var ErrTransport = errors.New("transcript fetch failed")

// Gateway fetches earnings call transcripts.
type Gateway interface {
	FetchTranscript(ctx context.Context, ticker string, year, quarter int) (string, error)
}

// FMP implements Gateway against the Financial Modeling Prep API.
type FMP struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

const defaultBaseURL = "https://financialmodelingprep.com/api/v3"

// NewFMP constructs the gateway. baseURL falls back to the production API.
func NewFMP(apiKey, baseURL string) *FMP {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &FMP{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchTranscript returns the most recent transcript for a ticker, or the
// one for the given year/quarter when both are non-zero. A missing API key
// is treated as "no transcript": the feature is simply not configured.
func (g *FMP) FetchTranscript(ctx context.Context, ticker string, year, quarter int) (string, error) {
	if strings.TrimSpace(g.apiKey) == "" {
		telemetry.Warn("transcript.missing_api_key", map[string]any{"ticker": ticker})
		return "", nil
	}
	ticker = strings.ToUpper(ticker)

	params := url.Values{"apikey": {g.apiKey}}
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	if quarter > 0 {
		params.Set("quarter", strconv.Itoa(quarter))
	}
	endpoint := g.baseURL + "/earning_call_transcript/" + ticker + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: FMP API returned %d for %s", ErrTransport, resp.StatusCode, ticker)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var entries []struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return "", fmt.Errorf("%w: unexpected response shape: %v", ErrTransport, err)
	}

	// FMP returns a list of transcripts; the first is the most recent.
	if len(entries) > 0 && entries[0].Content != "" {
		return entries[0].Content, nil
	}
	telemetry.Info("transcript.not_found", map[string]any{"ticker": ticker})
	return "", nil
}

var _ Gateway = (*FMP)(nil)
