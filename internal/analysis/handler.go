package analysis

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"stockbuddy-backend/internal/billing"
	"stockbuddy-backend/internal/jobs"
	"stockbuddy-backend/internal/portfolio"
	"stockbuddy-backend/internal/shared/server/middleware"
	"stockbuddy-backend/internal/shared/server/respond"
)

const (
	minCompareTickers = 2
	maxCompareTickers = 5
)

// Gatekeeper consults plan limits before a job is created and records usage
// once it is.
type Gatekeeper interface {
	CheckEarningsAnalysis(ctx context.Context, userID string) error
	CheckPortfolioAnalysis(ctx context.Context, userID string) error
	CheckCompare(ctx context.Context, userID string) error
	IncrementUsage(ctx context.Context, userID, usageType string)
}

// Handler owns the analysis trigger endpoints. Each creates a pending job,
// kicks off the background task and returns 202; clients poll the job.
type Handler struct {
	Jobs   *jobs.Service
	Runner *Runner
	Plans  Gatekeeper
}

// NewHandler constructs a Handler.
func NewHandler(jobsSvc *jobs.Service, runner *Runner, plans Gatekeeper) *Handler {
	return &Handler{Jobs: jobsSvc, Runner: runner, Plans: plans}
}

// RegisterRoutes attaches the trigger routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/stocks/:ticker/earnings/analyze", h.analyzeEarnings)
	rg.POST("/analysis/portfolios/:id/analyze", h.analyzePortfolio)
	rg.POST("/analysis/compare", h.compare)
}

type earningsAnalyzeRequest struct {
	Transcript string `json:"transcript"`
}

type compareRequest struct {
	Tickers []string `json:"tickers" binding:"required"`
}

func (h *Handler) analyzeEarnings(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	if ticker == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "ticker is required", nil)
		return
	}

	var req earningsAnalyzeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	if err := h.Plans.CheckEarningsAnalysis(c.Request.Context(), userID); err != nil {
		respondPlanError(c, err, "Monthly earnings analysis limit reached. Upgrade to Pro for unlimited analyses.")
		return
	}

	job, err := h.Jobs.Create(c.Request.Context(), userID, jobs.KindEarningsAnalysis, EarningsInput{
		Ticker:        ticker,
		HasTranscript: req.Transcript != "",
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create analysis job", nil)
		return
	}
	h.Plans.IncrementUsage(c.Request.Context(), userID, billing.UsageEarningsAnalysis)
	h.Runner.StartEarnings(job.ID, userID, ticker, req.Transcript)

	respond.JSON(c, http.StatusAccepted, job)
}

func (h *Handler) analyzePortfolio(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	portfolioID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || portfolioID <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "id must be a positive integer", nil)
		return
	}

	if _, err := h.Runner.Portfolios.Get(c.Request.Context(), userID, portfolioID); err != nil {
		if errors.Is(err, portfolio.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "portfolio not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load portfolio", nil)
		return
	}

	if err := h.Plans.CheckPortfolioAnalysis(c.Request.Context(), userID); err != nil {
		respondPlanError(c, err, "Monthly portfolio analysis limit reached. Upgrade to Pro for unlimited analyses.")
		return
	}

	job, err := h.Jobs.Create(c.Request.Context(), userID, jobs.KindPortfolioAnalysis, PortfolioInput{
		PortfolioID: portfolioID,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create analysis job", nil)
		return
	}
	h.Plans.IncrementUsage(c.Request.Context(), userID, billing.UsagePortfolioAnalysis)
	h.Runner.StartPortfolio(job.ID, userID, portfolioID)

	respond.JSON(c, http.StatusAccepted, job)
}

func (h *Handler) compare(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "tickers is required", nil)
		return
	}
	tickers := make([]string, 0, len(req.Tickers))
	for _, raw := range req.Tickers {
		t := strings.ToUpper(strings.TrimSpace(raw))
		if t != "" {
			tickers = append(tickers, t)
		}
	}
	if len(tickers) < minCompareTickers || len(tickers) > maxCompareTickers {
		respond.Error(c, http.StatusBadRequest, "validation_error", "between 2 and 5 tickers are required", nil)
		return
	}

	if err := h.Plans.CheckCompare(c.Request.Context(), userID); err != nil {
		respondPlanError(c, err, "Multi-stock comparison requires a Pro subscription.")
		return
	}

	job, err := h.Jobs.Create(c.Request.Context(), userID, jobs.KindComparison, CompareInput{
		Tickers: tickers,
	})
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create analysis job", nil)
		return
	}
	h.Runner.StartCompare(job.ID, userID, tickers)

	respond.JSON(c, http.StatusAccepted, job)
}

func respondPlanError(c *gin.Context, err error, limitMessage string) {
	switch {
	case errors.Is(err, billing.ErrLimitReached):
		respond.Error(c, http.StatusForbidden, "limit_reached", limitMessage, nil)
	case errors.Is(err, billing.ErrUpgradeRequired):
		respond.Error(c, http.StatusForbidden, "upgrade_required", limitMessage, nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to check subscription", nil)
	}
}
