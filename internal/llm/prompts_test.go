package llm

import (
	"strings"
	"testing"
)

func TestEarningsCallPromptTruncatesTranscript(t *testing.T) {
	long := strings.Repeat("a", TranscriptPromptLimit+4000)
	prompt := EarningsCallPrompt("AAPL", long, nil)
	if strings.Contains(prompt, long) {
		t.Fatal("transcript should be truncated in prompt")
	}
	if !strings.Contains(prompt, long[:TranscriptPromptLimit]) {
		t.Fatal("truncated transcript missing from prompt")
	}
	if !strings.Contains(prompt, "earnings call transcript for AAPL") {
		t.Fatal("ticker missing from prompt")
	}
}

func TestEarningsCallPromptIncludesFundamentals(t *testing.T) {
	prompt := EarningsCallPrompt("MSFT", "call text", &FundamentalsContext{
		Sector:    "Technology",
		MarketCap: "3000000000000",
	})
	if !strings.Contains(prompt, "Sector: Technology") {
		t.Fatal("sector missing")
	}
	if !strings.Contains(prompt, "P/E Ratio: N/A") {
		t.Fatal("empty fields should render as N/A")
	}
}

func TestComparisonPromptMarksMissingData(t *testing.T) {
	prompt := ComparisonPrompt([]ComparisonEntry{
		{Ticker: "AAPL", Sentiment: "positive", Guidance: "positive", KeyThemes: "strong iPhone demand"},
		{Ticker: "XYZ", Sentiment: "No transcript available"},
	})
	if !strings.Contains(prompt, "=== AAPL ===") || !strings.Contains(prompt, "=== XYZ ===") {
		t.Fatal("expected a block per ticker")
	}
	if !strings.Contains(prompt, "No earnings data available.") {
		t.Fatal("missing-data marker absent")
	}
}

func TestPortfolioAnalysisPromptFormatsAllocation(t *testing.T) {
	prompt := PortfolioAnalysisPrompt(PortfolioPromptInput{
		TotalValue:       15000.50,
		NumPositions:     3,
		HealthScore:      85,
		SectorAllocation: map[string]float64{"Technology": 0.6, "Healthcare": 0.4},
		EarningsAnalyses: []TickerSummary{{Ticker: "AAPL", Summary: strings.Repeat("s", 150)}},
	})
	if !strings.Contains(prompt, "Total Value: $15000.50") {
		t.Fatal("total value missing")
	}
	if !strings.Contains(prompt, "Healthcare: 40.0%, Technology: 60.0%") {
		t.Fatal("sector allocation should be sorted and formatted")
	}
	if !strings.Contains(prompt, "- AAPL: "+strings.Repeat("s", 100)+"...") {
		t.Fatal("summary should be truncated to 100 chars")
	}
}

func TestStockOverviewPromptWithoutNews(t *testing.T) {
	prompt := StockOverviewPrompt(OverviewPromptInput{Ticker: "TSLA"})
	if !strings.Contains(prompt, "No recent news available.") {
		t.Fatal("expected empty-news marker")
	}
	if !strings.Contains(prompt, "Current Price: N/A") {
		t.Fatal("expected N/A price")
	}
}
