package marketdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSearchTickersParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		q := r.URL.Query()
		if q.Get("search") != "apple" || q.Get("limit") != "5" || q.Get("active") != "true" {
			t.Errorf("query = %v", q)
		}
		_, _ = w.Write([]byte(`{"results": [
			{"ticker": "AAPL", "name": "Apple Inc."},
			{"ticker": "APLE"}
		]}`))
	}))
	t.Cleanup(srv.Close)

	g := NewSymbolSearch("test-key", srv.URL)
	results := g.SearchTickers(context.Background(), "apple", 5)
	if len(results) != 2 {
		t.Fatalf("len = %d", len(results))
	}
	if results[0].Ticker != "AAPL" || results[0].Name != "Apple Inc." {
		t.Fatalf("results[0] = %+v", results[0])
	}
	if results[1].Name != "Unknown" {
		t.Fatalf("missing name should default to Unknown, got %q", results[1].Name)
	}
}

func TestSearchTickersFailuresYieldEmptySlice(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`not json`)) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			t.Cleanup(srv.Close)
			g := NewSymbolSearch("test-key", srv.URL)
			if got := g.SearchTickers(context.Background(), "apple", 20); got == nil || len(got) != 0 {
				t.Fatalf("results = %v, want empty slice", got)
			}
		})
	}
}

func TestSearchTickersMissingKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	t.Cleanup(srv.Close)

	g := NewSymbolSearch("", srv.URL)
	if got := g.SearchTickers(context.Background(), "apple", 20); len(got) != 0 {
		t.Fatalf("results = %v, want empty", got)
	}
	if called {
		t.Fatal("gateway should not call upstream without a key")
	}
}

type fakeSearch struct {
	results []SearchResult
	query   string
	limit   int
}

func (f *fakeSearch) SearchTickers(_ context.Context, query string, limit int) []SearchResult {
	f.query = query
	f.limit = limit
	return f.results
}

func newSearchRouter(search SearchGateway) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(search).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestSearchEndpointReturnsMatches(t *testing.T) {
	fake := &fakeSearch{results: []SearchResult{{Ticker: "AAPL", Name: "Apple Inc."}}}
	r := newSearchRouter(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stocks/search?q=apple&limit=5", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.Code, resp.Body.String())
	}
	var results []SearchResult
	if err := json.Unmarshal(resp.Body.Bytes(), &results); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(results) != 1 || results[0].Ticker != "AAPL" {
		t.Fatalf("results = %+v", results)
	}
	if fake.query != "apple" || fake.limit != 5 {
		t.Fatalf("gateway called with query=%q limit=%d", fake.query, fake.limit)
	}
}

func TestSearchEndpointValidation(t *testing.T) {
	cases := []struct {
		name string
		path string
	}{
		{"missing query", "/api/v1/stocks/search"},
		{"blank query", "/api/v1/stocks/search?q=%20"},
		{"limit too high", "/api/v1/stocks/search?q=apple&limit=51"},
		{"limit zero", "/api/v1/stocks/search?q=apple&limit=0"},
		{"limit not a number", "/api/v1/stocks/search?q=apple&limit=ten"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newSearchRouter(&fakeSearch{})
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)
			if resp.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.Code)
			}
		})
	}
}

func TestSearchEndpointDefaultsLimit(t *testing.T) {
	fake := &fakeSearch{}
	r := newSearchRouter(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stocks/search?q=ms", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	if fake.limit != defaultSearchLimit {
		t.Fatalf("limit = %d, want %d", fake.limit, defaultSearchLimit)
	}
}
