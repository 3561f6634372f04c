package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"stockbuddy-backend/internal/billing"
	"stockbuddy-backend/internal/earnings"
	"stockbuddy-backend/internal/jobs"
	"stockbuddy-backend/internal/portfolio"
	"stockbuddy-backend/internal/shared/server/middleware"
)

type fakeGatekeeper struct {
	earningsErr  error
	portfolioErr error
	compareErr   error
	usage        []string
}

func (f *fakeGatekeeper) CheckEarningsAnalysis(context.Context, string) error  { return f.earningsErr }
func (f *fakeGatekeeper) CheckPortfolioAnalysis(context.Context, string) error { return f.portfolioErr }
func (f *fakeGatekeeper) CheckCompare(context.Context, string) error           { return f.compareErr }
func (f *fakeGatekeeper) IncrementUsage(_ context.Context, _, usageType string) {
	f.usage = append(f.usage, usageType)
}

func newTestRouter(t *testing.T, plans Gatekeeper) (*gin.Engine, *runnerFixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := newRunnerFixture()
	f.portfolios.portfolio = portfolio.Portfolio{ID: 7}
	h := NewHandler(f.jobsSvc, f.runner, plans)

	r := gin.New()
	rg := r.Group("/api/v1")
	rg.Use(middleware.Auth(func(string) (string, error) { return "user-1", nil }))
	h.RegisterRoutes(rg)
	return r, f
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer test-token")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAnalyzeEarningsReturnsPendingJob(t *testing.T) {
	plans := &fakeGatekeeper{}
	r, f := newTestRouter(t, plans)

	w := doJSON(t, r, http.MethodPost, "/api/v1/stocks/aapl/earnings/analyze",
		`{"transcript":"We had a strong quarter."}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body: %s)", w.Code, w.Body.String())
	}

	var job jobs.Job
	if err := json.Unmarshal(w.Body.Bytes(), &job); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if job.ID == "" || job.Kind != jobs.KindEarningsAnalysis {
		t.Fatalf("job = %+v", job)
	}

	var input EarningsInput
	if err := json.Unmarshal(job.InputData, &input); err != nil {
		t.Fatalf("unmarshal input: %v", err)
	}
	if input.Ticker != "AAPL" || !input.HasTranscript {
		t.Fatalf("input = %+v, want AAPL with transcript", input)
	}
	if len(plans.usage) != 1 || plans.usage[0] != billing.UsageEarningsAnalysis {
		t.Fatalf("usage = %v, want one earnings increment", plans.usage)
	}

	done := f.waitForTerminal(t, job.ID)
	if done.Status != jobs.StatusCompleted {
		t.Fatalf("background job status = %q, want completed", done.Status)
	}
}

func TestAnalyzeEarningsQuotaExhausted(t *testing.T) {
	r, _ := newTestRouter(t, &fakeGatekeeper{earningsErr: billing.ErrLimitReached})

	w := doJSON(t, r, http.MethodPost, "/api/v1/stocks/AAPL/earnings/analyze", "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if !strings.Contains(w.Body.String(), "limit_reached") {
		t.Fatalf("body = %s, want limit_reached", w.Body.String())
	}
}

func TestAnalyzePortfolioMissingPortfolio(t *testing.T) {
	plans := &fakeGatekeeper{}
	r, f := newTestRouter(t, plans)
	f.portfolios.err = portfolio.ErrNotFound

	w := doJSON(t, r, http.MethodPost, "/api/v1/analysis/portfolios/99/analyze", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if len(plans.usage) != 0 {
		t.Fatalf("usage incremented for rejected request: %v", plans.usage)
	}
}

func TestAnalyzePortfolioReturnsPendingJob(t *testing.T) {
	plans := &fakeGatekeeper{}
	r, _ := newTestRouter(t, plans)

	w := doJSON(t, r, http.MethodPost, "/api/v1/analysis/portfolios/7/analyze", "")
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body: %s)", w.Code, w.Body.String())
	}
	if len(plans.usage) != 1 || plans.usage[0] != billing.UsagePortfolioAnalysis {
		t.Fatalf("usage = %v, want one portfolio increment", plans.usage)
	}
}

func TestCompareValidatesTickerCount(t *testing.T) {
	r, _ := newTestRouter(t, &fakeGatekeeper{})

	cases := []struct {
		name string
		body string
	}{
		{"one ticker", `{"tickers":["AAPL"]}`},
		{"six tickers", `{"tickers":["A","B","C","D","E","F"]}`},
		{"blank tickers collapse", `{"tickers":["AAPL","  "]}`},
		{"missing field", `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/v1/analysis/compare", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body: %s)", w.Code, w.Body.String())
			}
		})
	}
}

func TestCompareRequiresProPlan(t *testing.T) {
	r, _ := newTestRouter(t, &fakeGatekeeper{compareErr: billing.ErrUpgradeRequired})

	w := doJSON(t, r, http.MethodPost, "/api/v1/analysis/compare", `{"tickers":["AAPL","MSFT"]}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if !strings.Contains(w.Body.String(), "upgrade_required") {
		t.Fatalf("body = %s, want upgrade_required", w.Body.String())
	}
}

func TestCompareAcceptsAndNormalizesTickers(t *testing.T) {
	r, f := newTestRouter(t, &fakeGatekeeper{})
	f.resolver.records["AAPL"] = &earnings.Record{Ticker: "AAPL", Summary: "fine quarter"}

	w := doJSON(t, r, http.MethodPost, "/api/v1/analysis/compare", `{"tickers":["aapl"," msft "]}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body: %s)", w.Code, w.Body.String())
	}

	var job jobs.Job
	if err := json.Unmarshal(w.Body.Bytes(), &job); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	var input CompareInput
	if err := json.Unmarshal(job.InputData, &input); err != nil {
		t.Fatalf("unmarshal input: %v", err)
	}
	if len(input.Tickers) != 2 || input.Tickers[0] != "AAPL" || input.Tickers[1] != "MSFT" {
		t.Fatalf("tickers = %v, want [AAPL MSFT]", input.Tickers)
	}
}
