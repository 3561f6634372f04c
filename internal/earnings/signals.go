package earnings

import (
	"regexp"
	"strconv"
	"strings"
)

// Signals is the structured data extracted from an AI analysis narrative.
type Signals struct {
	SentimentScore  float64
	GuidanceOutlook string
	RiskMentions    int
	GrowthMentions  int
	KeyMetrics      map[string]string
}

// Keyword tiers for the sentiment score, checked in order; first match wins.
var (
	strongPositivePhrases = []string{"strongly positive", "very positive", "highly positive", "bullish"}
	strongNegativePhrases = []string{"strongly negative", "very negative", "highly negative", "bearish"}
	positivePhrases       = []string{"positive", "optimistic", "confident", "upbeat", "encouraging"}
	negativePhrases       = []string{"negative", "pessimistic", "cautious", "concerning", "disappointing"}
	neutralPhrases        = []string{"neutral", "mixed", "balanced", "moderate"}
)

var (
	guidancePositiveWords = []string{
		"raised guidance", "increased outlook", "positive guidance",
		"above expectations", "strong outlook", "optimistic forecast",
		"upside", "accelerat", "raised", "exceeded",
	}
	guidanceNegativeWords = []string{
		"lowered guidance", "reduced outlook", "negative guidance",
		"below expectations", "cautious outlook", "downside",
		"cut", "lowered", "missed", "decline",
	}
)

var riskKeywords = []string{
	"risk", "challenge", "headwind", "uncertainty", "threat",
	"competition", "regulatory", "volatility", "concern", "pressure",
	"decline", "weakness", "disruption", "litigation", "debt",
}

var growthKeywords = []string{
	"growth", "expansion", "new product", "innovation", "launch",
	"market share", "opportunity", "momentum", "increase", "scale",
	"revenue growth", "acquisition", "partnership", "pipeline",
}

var (
	nextSectionRe = regexp.MustCompile(`\d+\.\s+[A-Z]`)
	revenueRe     = regexp.MustCompile(`(?i)revenue\s*(?:of\s*)?\$?([\d,.]+)\s*(billion|million|B|M)?`)
	epsRe         = regexp.MustCompile(`(?i)(?:EPS|earnings per share)\s*(?:of\s*)?\$?([\d,.]+)`)
	marginRe      = regexp.MustCompile(`(?i)(?:gross|operating|net|profit)\s*margin\s*(?:of\s*)?(\d+\.?\d*)\s*%`)
	yoyRe         = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*%\s*(?:year-over-year|YoY|y/y)`)
)

// ExtractSignals parses an AI analysis written against the 7-section
// numbered template. Deterministic keyword and pattern matching; no
// matching failure ever propagates, missing sections yield defaults.
func ExtractSignals(text string) Signals {
	return Signals{
		SentimentScore:  extractSentimentScore(text),
		GuidanceOutlook: extractGuidanceOutlook(text),
		RiskMentions:    countKeywords(extractSection(text, 5, "RISK FACTORS"), riskKeywords),
		GrowthMentions:  countKeywords(extractSection(text, 3, "BUSINESS HIGHLIGHTS"), growthKeywords),
		KeyMetrics:      extractKeyMetrics(text),
	}
}

// extractSection returns the text between a numbered section header and the
// next numbered header, or "" when the header is absent.
func extractSection(text string, num int, name string) string {
	header := regexp.MustCompile(`(?is)` + strconv.Itoa(num) + `\.\s*` + regexp.QuoteMeta(name) + `.*?\n`)
	loc := header.FindStringIndex(text)
	if loc == nil {
		return ""
	}
	body := text[loc[1]:]
	if next := nextSectionRe.FindStringIndex(body); next != nil {
		body = body[:next[0]]
	}
	return strings.TrimSpace(body)
}

func extractSentimentScore(text string) float64 {
	section := extractSection(text, 7, "SENTIMENT ANALYSIS")
	if section == "" {
		section = text
	}
	lower := strings.ToLower(section)

	tiers := []struct {
		phrases []string
		score   float64
	}{
		{strongPositivePhrases, 0.8},
		{strongNegativePhrases, -0.8},
		{positivePhrases, 0.5},
		{negativePhrases, -0.5},
		{neutralPhrases, 0.0},
	}
	for _, tier := range tiers {
		for _, phrase := range tier.phrases {
			if strings.Contains(lower, phrase) {
				return tier.score
			}
		}
	}
	return 0.0
}

func extractGuidanceOutlook(text string) string {
	section := extractSection(text, 4, "MANAGEMENT GUIDANCE")
	if section == "" {
		section = text
	}
	lower := strings.ToLower(section)

	var pos, neg int
	for _, w := range guidancePositiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range guidanceNegativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}
	switch {
	case pos > neg:
		return "positive"
	case neg > pos:
		return "negative"
	default:
		return "neutral"
	}
}

// countKeywords sums raw occurrence counts; overlapping terms each count.
func countKeywords(section string, keywords []string) int {
	if section == "" {
		return 0
	}
	lower := strings.ToLower(section)
	var total int
	for _, kw := range keywords {
		total += strings.Count(lower, kw)
	}
	return total
}

func extractKeyMetrics(text string) map[string]string {
	metrics := map[string]string{}
	section := extractSection(text, 2, "FINANCIAL PERFORMANCE")
	if section == "" {
		return metrics
	}
	if m := revenueRe.FindString(section); m != "" {
		metrics["revenue"] = strings.TrimSpace(m)
	}
	if m := epsRe.FindString(section); m != "" {
		metrics["eps"] = strings.TrimSpace(m)
	}
	if m := marginRe.FindString(section); m != "" {
		metrics["margin"] = strings.TrimSpace(m)
	}
	if m := yoyRe.FindString(section); m != "" {
		metrics["yoy_growth"] = strings.TrimSpace(m)
	}
	return metrics
}
