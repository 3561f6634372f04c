package earnings

import (
	"context"
	"errors"
	"strconv"
	"time"

	"stockbuddy-backend/internal/llm"
	"stockbuddy-backend/internal/marketdata"
	"stockbuddy-backend/internal/news"
	"stockbuddy-backend/internal/shared/telemetry"
	"stockbuddy-backend/internal/transcript"
)

// SynthesizedMarker is stored as a record's raw text when the narrative was
// built from fundamentals and news instead of a transcript.
const SynthesizedMarker = "Synthesized from fundamentals and news (no transcript available)"

const fallbackNewsLimit = 10

// Resolver guarantees a best-effort earnings signal exists for a ticker.
// The fallback chain runs transcript-then-overview: an existing record wins,
// then a fresh transcript analysis, then a fundamentals+news overview, and
// only when every source is empty does it give up.
type Resolver struct {
	Records     Repo
	Transcripts transcript.Gateway
	Market      marketdata.Gateway
	News        news.Gateway
	LLM         llm.Client
}

// Ensure returns the current earnings record for (owner, ticker), creating
// one if necessary. A nil record with nil error means no data source could
// produce a signal; records are never fabricated from nothing.
func (r *Resolver) Ensure(ctx context.Context, userID, ticker string) (*Record, error) {
	existing, err := r.Records.LatestByTicker(ctx, userID, ticker)
	if err == nil && existing.HasSummary() {
		telemetry.Info("earnings.resolver.cache_hit", map[string]any{"ticker": ticker})
		return &existing, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// Transcript failures are absence, never fatal; the fallback path
	// always gets a chance to run.
	text, terr := r.Transcripts.FetchTranscript(ctx, ticker, 0, 0)
	if terr != nil {
		telemetry.Warn("earnings.resolver.transcript_failed", map[string]any{
			"ticker": ticker,
			"error":  terr.Error(),
		})
		text = ""
	}

	fundamentals, ferr := r.Market.GetFundamentals(ctx, ticker)
	if ferr != nil {
		telemetry.Warn("earnings.resolver.fundamentals_failed", map[string]any{
			"ticker": ticker,
			"error":  ferr.Error(),
		})
	}
	var fctx *llm.FundamentalsContext
	if ferr == nil {
		fctx = FundamentalsContext(fundamentals)
	}

	var narrative, sourceText string
	if text != "" {
		narrative, err = r.LLM.Complete(ctx, llm.EarningsCallPrompt(ticker, text, fctx), 0)
		if err != nil {
			return nil, err
		}
		sourceText = truncate(text, StoredTextLimit)
	} else {
		articles := r.News.GetStockNews(ctx, ticker, fallbackNewsLimit)
		if ferr != nil && len(articles) == 0 {
			telemetry.Info("earnings.resolver.no_data", map[string]any{"ticker": ticker})
			return nil, nil
		}
		narrative, err = r.LLM.Complete(ctx, overviewPrompt(ticker, fundamentals, fctx, articles), 0)
		if err != nil {
			return nil, err
		}
		sourceText = SynthesizedMarker
	}

	signals := ExtractSignals(narrative)
	created, err := r.Records.Create(ctx, Record{
		UserID:          userID,
		Ticker:          ticker,
		ExtractedText:   sourceText,
		Summary:         narrative,
		SentimentScore:  signals.SentimentScore,
		GuidanceOutlook: signals.GuidanceOutlook,
		RiskMentions:    signals.RiskMentions,
		GrowthMentions:  signals.GrowthMentions,
		KeyMetrics:      signals.KeyMetrics,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	telemetry.Info("earnings.resolver.created", map[string]any{
		"ticker":    created.Ticker,
		"record_id": created.ID,
	})
	return &created, nil
}

func overviewPrompt(ticker string, f marketdata.Fundamentals, fctx *llm.FundamentalsContext, articles []news.Article) string {
	input := llm.OverviewPromptInput{
		Ticker:       ticker,
		Fundamentals: fctx,
	}
	if f.Price != nil {
		input.CurrentPrice = "$" + strconv.FormatFloat(*f.Price, 'f', 2, 64)
	}
	for _, a := range articles {
		input.News = append(input.News, llm.NewsContextItem{
			Title:          a.Title,
			SentimentLabel: a.TickerSentimentLabel,
			Summary:        a.Summary,
		})
	}
	return llm.StockOverviewPrompt(input)
}

// FundamentalsContext maps gateway fundamentals into prompt context.
func FundamentalsContext(f marketdata.Fundamentals) *llm.FundamentalsContext {
	ctx := &llm.FundamentalsContext{
		Sector:    f.Sector,
		MarketCap: f.MarketCap,
		PERatio:   f.PERatio,
	}
	if f.Beta != nil {
		ctx.Beta = strconv.FormatFloat(*f.Beta, 'f', -1, 64)
	}
	if f.DividendYield != nil {
		ctx.DividendYield = strconv.FormatFloat(*f.DividendYield, 'f', -1, 64)
	}
	return ctx
}

func truncate(s string, limit int) string {
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
