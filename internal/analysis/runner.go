package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockbuddy-backend/internal/earnings"
	"stockbuddy-backend/internal/jobs"
	"stockbuddy-backend/internal/llm"
	"stockbuddy-backend/internal/marketdata"
	"stockbuddy-backend/internal/portfolio"
	"stockbuddy-backend/internal/shared/metrics"
	"stockbuddy-backend/internal/shared/telemetry"
	"stockbuddy-backend/internal/transcript"
)

// taskTimeout bounds one background analysis end to end, including every
// upstream fetch and LLM retry.
const taskTimeout = 5 * time.Minute

// comparisonThemeLimit caps each ticker's summary inside comparison prompts.
const comparisonThemeLimit = 500

// Resolver guarantees an earnings record exists for a ticker, or reports
// that no data source could produce one.
type Resolver interface {
	Ensure(ctx context.Context, userID, ticker string) (*earnings.Record, error)
}

// PortfolioSource exposes the portfolio aggregates the workflows consume.
type PortfolioSource interface {
	Get(ctx context.Context, userID string, portfolioID int64) (portfolio.Portfolio, error)
	Snapshot(ctx context.Context, userID string, portfolioID int64) (portfolio.Snapshot, error)
	Sectors(ctx context.Context, userID string, portfolioID int64) ([]portfolio.SectorAllocation, error)
}

// Runner executes analysis workflows as background tasks. Each task runs on
// its own goroutine with a fresh context: the triggering request has long
// since returned by the time the work finishes.
type Runner struct {
	Jobs        *jobs.Service
	Portfolios  PortfolioSource
	Resolver    Resolver
	Records     earnings.Repo
	Transcripts transcript.Gateway
	Market      marketdata.Gateway
	LLM         llm.Client
}

// StartEarnings schedules an earnings-call analysis for an already-created
// job. transcriptText may be empty, in which case the transcript gateway is
// consulted.
func (r *Runner) StartEarnings(jobID, userID, ticker, transcriptText string) {
	r.start(jobID, jobs.KindEarningsAnalysis, func(ctx context.Context) (any, error) {
		return r.runEarnings(ctx, userID, ticker, transcriptText)
	})
}

// StartPortfolio schedules a portfolio analysis for an already-created job.
func (r *Runner) StartPortfolio(jobID, userID string, portfolioID int64) {
	r.start(jobID, jobs.KindPortfolioAnalysis, func(ctx context.Context) (any, error) {
		return r.runPortfolio(ctx, userID, portfolioID)
	})
}

// StartCompare schedules a multi-ticker comparison for an already-created
// job. Ticker count is validated at the HTTP boundary.
func (r *Runner) StartCompare(jobID, userID string, tickers []string) {
	r.start(jobID, jobs.KindComparison, func(ctx context.Context) (any, error) {
		return r.runCompare(ctx, userID, tickers)
	})
}

// start is the shared task skeleton: mark processing, do the work, record
// the terminal state. A panic inside a workflow fails the job instead of
// taking the process down.
func (r *Runner) start(jobID, kind string, work func(ctx context.Context) (any, error)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		defer cancel()
		started := time.Now()
		defer func() {
			metrics.ObserveJobDurationMs(float64(time.Since(started).Milliseconds()))
		}()
		defer func() {
			if rec := recover(); rec != nil {
				telemetry.Error("analysis.task_panic", map[string]any{
					"job_id": jobID,
					"kind":   kind,
					"panic":  fmt.Sprint(rec),
				})
				r.Jobs.MarkFailed(ctx, jobID, fmt.Errorf("internal error during %s", kind))
			}
		}()

		r.Jobs.MarkProcessing(ctx, jobID)
		result, err := work(ctx)
		if err != nil {
			r.Jobs.MarkFailed(ctx, jobID, err)
			return
		}
		r.Jobs.MarkCompleted(ctx, jobID, result)
	}()
}

func (r *Runner) runEarnings(ctx context.Context, userID, ticker, transcriptText string) (any, error) {
	if transcriptText == "" {
		telemetry.Info("analysis.earnings.fetching_transcript", map[string]any{"ticker": ticker})
		text, err := r.Transcripts.FetchTranscript(ctx, ticker, 0, 0)
		if err != nil {
			telemetry.Warn("analysis.earnings.transcript_failed", map[string]any{
				"ticker": ticker,
				"error":  err.Error(),
			})
		}
		transcriptText = text
	}
	if transcriptText == "" {
		return nil, fmt.Errorf(
			"No earnings transcript available for %s. Please provide a transcript manually or ensure FMP_API_KEY is configured.",
			ticker,
		)
	}

	var fctx *llm.FundamentalsContext
	if fundamentals, err := r.Market.GetFundamentals(ctx, ticker); err != nil {
		telemetry.Warn("analysis.earnings.fundamentals_failed", map[string]any{
			"ticker": ticker,
			"error":  err.Error(),
		})
	} else {
		fctx = earnings.FundamentalsContext(fundamentals)
	}

	narrative, err := r.LLM.Complete(ctx, llm.EarningsCallPrompt(ticker, transcriptText, fctx), 0)
	if err != nil {
		return nil, err
	}

	signals := earnings.ExtractSignals(narrative)
	if len(transcriptText) > earnings.StoredTextLimit {
		transcriptText = transcriptText[:earnings.StoredTextLimit]
	}
	if _, err := r.Records.Create(ctx, earnings.Record{
		UserID:          userID,
		Ticker:          strings.ToUpper(ticker),
		ExtractedText:   transcriptText,
		Summary:         narrative,
		SentimentScore:  signals.SentimentScore,
		GuidanceOutlook: signals.GuidanceOutlook,
		RiskMentions:    signals.RiskMentions,
		GrowthMentions:  signals.GrowthMentions,
		KeyMetrics:      signals.KeyMetrics,
		CreatedAt:       time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	return EarningsResult{Analysis: narrative}, nil
}

func (r *Runner) runPortfolio(ctx context.Context, userID string, portfolioID int64) (any, error) {
	snap, err := r.Portfolios.Snapshot(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}
	sectors, err := r.Portfolios.Sectors(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}
	p, err := r.Portfolios.Get(ctx, userID, portfolioID)
	if err != nil {
		return nil, err
	}

	var summaries []llm.TickerSummary
	for _, h := range p.Holdings {
		rec, err := r.Resolver.Ensure(ctx, userID, h.Ticker)
		if err != nil {
			return nil, err
		}
		if rec != nil && rec.HasSummary() {
			summaries = append(summaries, llm.TickerSummary{
				Ticker:  h.Ticker,
				Summary: rec.Summary,
			})
		}
	}

	allocation := make(map[string]float64, len(sectors))
	for _, s := range sectors {
		allocation[s.Sector] = s.Weight
	}

	narrative, err := r.LLM.Complete(ctx, llm.PortfolioAnalysisPrompt(llm.PortfolioPromptInput{
		TotalValue:       snap.TotalValue,
		NumPositions:     snap.NumPositions,
		HealthScore:      float64(snap.HealthScore),
		SectorAllocation: allocation,
		EarningsAnalyses: summaries,
	}), 0)
	if err != nil {
		return nil, err
	}

	return PortfolioResult{
		Analysis: narrative,
		Snapshot: SnapshotSummary{
			TotalValue:        snap.TotalValue,
			HealthScore:       snap.HealthScore,
			NumPositions:      snap.NumPositions,
			ConcentrationRisk: snap.ConcentrationRisk,
		},
	}, nil
}

func (r *Runner) runCompare(ctx context.Context, userID string, tickers []string) (any, error) {
	entries := make([]llm.ComparisonEntry, 0, len(tickers))
	for _, raw := range tickers {
		ticker := strings.ToUpper(raw)
		rec, err := r.Resolver.Ensure(ctx, userID, ticker)
		if err != nil {
			return nil, err
		}
		if rec == nil || !rec.HasSummary() {
			entries = append(entries, llm.ComparisonEntry{
				Ticker:    ticker,
				Sentiment: "No transcript available",
			})
			continue
		}
		sentiment := rec.GuidanceOutlook
		if sentiment == "" {
			sentiment = "Neutral"
		}
		themes := rec.Summary
		if len(themes) > comparisonThemeLimit {
			themes = themes[:comparisonThemeLimit]
		}
		entries = append(entries, llm.ComparisonEntry{
			Ticker:    ticker,
			Sentiment: sentiment,
			Guidance:  rec.GuidanceOutlook,
			KeyThemes: themes,
		})
	}

	narrative, err := r.LLM.Complete(ctx, llm.ComparisonPrompt(entries), 0)
	if err != nil {
		return nil, err
	}
	return CompareResult{Comparison: narrative}, nil
}
