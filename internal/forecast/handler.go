package forecast

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stockbuddy-backend/internal/billing"
	"stockbuddy-backend/internal/marketdata"
	"stockbuddy-backend/internal/shared/server/middleware"
	"stockbuddy-backend/internal/shared/server/respond"
)

const (
	defaultDays = 30
	minDays     = 7
	maxDays     = 90
)

// PlanChecker gates forecasting behind the pro plan.
type PlanChecker interface {
	CheckForecast(ctx context.Context, userID string) error
}

// Handler wires the forecast endpoint.
type Handler struct {
	Market marketdata.Gateway
	Plans  PlanChecker
}

// NewHandler constructs a Handler.
func NewHandler(market marketdata.Gateway, plans PlanChecker) *Handler {
	return &Handler{Market: market, Plans: plans}
}

// RegisterRoutes attaches forecast routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stocks/:ticker/forecast", h.getForecast)
}

func (h *Handler) getForecast(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	ticker := c.Param("ticker")
	if ticker == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "ticker is required", nil)
		return
	}

	days := defaultDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < minDays || parsed > maxDays {
			respond.Error(c, http.StatusBadRequest, "validation_error", "days must be between 7 and 90", nil)
			return
		}
		days = parsed
	}

	if err := h.Plans.CheckForecast(c.Request.Context(), userID); err != nil {
		switch {
		case errors.Is(err, billing.ErrUpgradeRequired):
			respond.Error(c, http.StatusForbidden, "upgrade_required", "Price forecasting requires a Pro subscription.", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to check subscription", nil)
		}
		return
	}

	closes, err := h.Market.DailyCloses(c.Request.Context(), ticker)
	if err != nil {
		respond.Error(c, http.StatusBadGateway, "upstream_error", "failed to load price history", nil)
		return
	}

	result, err := Build(ticker, closes, days)
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientData):
			respond.Error(c, http.StatusBadRequest, "insufficient_data", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate forecast", nil)
		}
		return
	}
	respond.OK(c, result)
}
