package llm

import (
	"fmt"
	"sort"
	"strings"
)

// SystemPrompt frames every completion request.
const SystemPrompt = "You are a knowledgeable, unbiased investment analyst."

// TranscriptPromptLimit caps how much transcript text is embedded in a
// prompt. Transcripts routinely exceed the provider's context budget.
const TranscriptPromptLimit = 15000

// FundamentalsContext carries the company-fundamentals lines embedded in
// earnings prompts. Empty fields render as N/A.
type FundamentalsContext struct {
	Sector        string
	MarketCap     string
	PERatio       string
	Beta          string
	DividendYield string
}

// EarningsCallPrompt builds the comprehensive earnings-call analysis prompt.
func EarningsCallPrompt(ticker, callText string, fundamentals *FundamentalsContext) string {
	var fundamentalsBlock string
	if fundamentals != nil {
		fundamentalsBlock = fmt.Sprintf(`Company Fundamentals:
- Sector: %s
- Market Cap: %s
- P/E Ratio: %s
- Beta: %s
- Dividend Yield: %s`,
			orNA(fundamentals.Sector),
			orNA(fundamentals.MarketCap),
			orNA(fundamentals.PERatio),
			orNA(fundamentals.Beta),
			orNA(fundamentals.DividendYield),
		)
	}

	if len(callText) > TranscriptPromptLimit {
		callText = callText[:TranscriptPromptLimit]
	}

	return fmt.Sprintf(`You are an investment analyst. Analyze this earnings call transcript for %s.

%s

Please provide a comprehensive analysis covering:

1. EXECUTIVE SUMMARY (3-4 bullet points)
2. FINANCIAL PERFORMANCE (Revenue, EPS, Margins mentioned)
3. BUSINESS HIGHLIGHTS (Key developments, new products, expansions)
4. MANAGEMENT GUIDANCE (Future outlook, forecasts)
5. RISK FACTORS (Challenges, competition, market risks mentioned)
6. INVESTMENT IMPLICATIONS (What this means for investors)
7. SENTIMENT ANALYSIS (Overall tone: Positive/Neutral/Negative)

Focus on actionable insights. Be concise but thorough.

EARNINGS CALL TRANSCRIPT:
%s

Format your response with clear sections and bullet points.`, ticker, fundamentalsBlock, callText)
}

// TickerSummary pairs a ticker with its stored earnings analysis summary.
type TickerSummary struct {
	Ticker  string
	Summary string
}

// PortfolioPromptInput carries the snapshot data embedded in the
// portfolio-analysis prompt.
type PortfolioPromptInput struct {
	TotalValue       float64
	NumPositions     int
	HealthScore      float64
	SectorAllocation map[string]float64
	EarningsAnalyses []TickerSummary
}

// PortfolioAnalysisPrompt builds the portfolio-level analysis prompt.
func PortfolioAnalysisPrompt(input PortfolioPromptInput) string {
	portfolioSummary := fmt.Sprintf(`Portfolio Overview:
- Total Value: $%.2f
- Number of Positions: %d
- Health Score: %.0f/100
- Sector Allocation: %s`,
		input.TotalValue,
		input.NumPositions,
		input.HealthScore,
		formatSectorAllocation(input.SectorAllocation),
	)

	var earningsSummary strings.Builder
	earningsSummary.WriteString("\nEarnings Call Insights:\n")
	for _, a := range input.EarningsAnalyses {
		summary := a.Summary
		if summary == "" {
			summary = "No analysis"
		}
		if len(summary) > 100 {
			summary = summary[:100]
		}
		fmt.Fprintf(&earningsSummary, "- %s: %s...\n", a.Ticker, summary)
	}

	return fmt.Sprintf(`You are a portfolio manager analyzing a stock portfolio with recent earnings call data.

%s

Recent Earnings Analyses:
%s

Provide a comprehensive portfolio analysis covering:

1. OVERALL PORTFOLIO HEALTH
2. EARNINGS EXPOSURE ANALYSIS (How many holdings have recent earnings data)
3. SECTOR CONCENTRATION RISKS
4. EARNINGS-DRIVEN INSIGHTS (Based on the earnings calls)
5. RECOMMENDED ACTIONS (Review, rebalance, research suggestions)
6. RISK ASSESSMENT (Considering earnings sentiment)

Be educational, not advisory. Suggest what an investor might discuss with a financial professional.`,
		portfolioSummary, earningsSummary.String())
}

// ComparisonEntry carries the per-ticker block of the comparison prompt.
// KeyThemes is empty when no earnings data could be resolved.
type ComparisonEntry struct {
	Ticker    string
	Sentiment string
	Guidance  string
	KeyThemes string
}

// ComparisonPrompt builds the multi-company earnings comparison prompt.
func ComparisonPrompt(entries []ComparisonEntry) string {
	var comparisonData strings.Builder
	for _, e := range entries {
		themes := e.KeyThemes
		if themes == "" {
			themes = "No earnings data available."
		}
		fmt.Fprintf(&comparisonData, `
=== %s ===
Sentiment: %s
Guidance Outlook: %s
Earnings Analysis Summary:
%s
`, e.Ticker, e.Sentiment, e.Guidance, themes)
	}

	return fmt.Sprintf(`You are an investment analyst comparing recent earnings across companies.
Use ONLY the data provided below. Do NOT use hypothetical scenarios.
If data is missing for a company, note it but focus analysis on companies with data.

%s

Provide a detailed comparative analysis:
1. INDUSTRY TRENDS (Common themes across these companies)
2. RELATIVE PERFORMANCE (Which companies outperformed based on their earnings)
3. OUTLOOK COMPARISON (Which have more positive guidance and why)
4. RISK COMPARISON (Which face similar/different risks)
5. INVESTMENT IMPLICATIONS (For sector/industry investors)

Base your analysis strictly on the earnings data provided above.
Highlight specific differences and similarities in management tone and outlook.`,
		comparisonData.String())
}

// NewsContextItem carries one article in the stock-overview prompt.
type NewsContextItem struct {
	Title          string
	SentimentLabel string
	Summary        string
}

// OverviewPromptInput carries the fallback context when no transcript
// exists: price, fundamentals and recent news stand in for the call.
type OverviewPromptInput struct {
	Ticker       string
	CurrentPrice string
	Fundamentals *FundamentalsContext
	News         []NewsContextItem
}

// StockOverviewPrompt builds the no-transcript fallback prompt from
// fundamentals and recent news.
func StockOverviewPrompt(input OverviewPromptInput) string {
	var context strings.Builder
	fmt.Fprintf(&context, "Ticker: %s\n", input.Ticker)
	fmt.Fprintf(&context, "Current Price: %s\n", orNA(input.CurrentPrice))
	if f := input.Fundamentals; f != nil {
		fmt.Fprintf(&context, `Sector: %s
Market Cap: %s
P/E Ratio: %s
Beta: %s
Dividend Yield: %s
`, orNA(f.Sector), orNA(f.MarketCap), orNA(f.PERatio), orNA(f.Beta), orNA(f.DividendYield))
	}

	context.WriteString("\nRecent News:\n")
	if len(input.News) == 0 {
		context.WriteString("No recent news available.\n")
	}
	for _, n := range input.News {
		summary := n.Summary
		if len(summary) > 200 {
			summary = summary[:200]
		}
		fmt.Fprintf(&context, "- %s (sentiment: %s): %s\n", n.Title, orNA(n.SentimentLabel), summary)
	}

	return fmt.Sprintf(`You are an investment analyst. No recent earnings call transcript is available
for %s, so analyze the company from its fundamentals and recent news instead.

%s

Provide a stock overview covering:

1. EXECUTIVE SUMMARY (3-4 bullet points)
2. FINANCIAL PROFILE (Valuation, market cap, dividend)
3. NEWS SENTIMENT (Overall tone of recent coverage)
4. RISK FACTORS (Based on the news and fundamentals above)
5. INVESTMENT IMPLICATIONS (What this means for investors)

Use ONLY the data provided above. Be concise but thorough.`, input.Ticker, context.String())
}

func formatSectorAllocation(alloc map[string]float64) string {
	if len(alloc) == 0 {
		return "{}"
	}
	sectors := make([]string, 0, len(alloc))
	for sector := range alloc {
		sectors = append(sectors, sector)
	}
	sort.Strings(sectors)
	parts := make([]string, 0, len(sectors))
	for _, sector := range sectors {
		parts = append(parts, fmt.Sprintf("%s: %.1f%%", sector, alloc[sector]*100))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
