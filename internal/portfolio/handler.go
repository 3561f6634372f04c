package portfolio

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"stockbuddy-backend/internal/billing"
	"stockbuddy-backend/internal/shared/server/middleware"
	"stockbuddy-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the portfolio service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches portfolio routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/portfolios", h.createPortfolio)
	rg.GET("/portfolios", h.listPortfolios)
	rg.GET("/portfolios/:id", h.getPortfolio)
	rg.PUT("/portfolios/:id", h.renamePortfolio)
	rg.DELETE("/portfolios/:id", h.deletePortfolio)

	rg.POST("/portfolios/:id/holdings", h.addHolding)
	rg.PUT("/portfolios/:id/holdings/:holdingID", h.updateHolding)
	rg.DELETE("/portfolios/:id/holdings/:holdingID", h.deleteHolding)
	rg.POST("/portfolios/:id/holdings/refresh", h.refreshHoldings)

	rg.GET("/portfolios/:id/snapshot", h.getSnapshot)
	rg.GET("/portfolios/:id/sectors", h.getSectors)
	rg.GET("/portfolios/:id/insights", h.getInsights)
}

type portfolioRequest struct {
	Name string `json:"name" binding:"required"`
}

type holdingRequest struct {
	Ticker string  `json:"ticker" binding:"required"`
	Shares float64 `json:"shares" binding:"required,gt=0"`
}

type sharesRequest struct {
	Shares float64 `json:"shares" binding:"required,gt=0"`
}

func (h *Handler) createPortfolio(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "name is required", nil)
		return
	}

	p, err := h.Svc.Create(c.Request.Context(), userID, strings.TrimSpace(req.Name))
	if err != nil {
		if errors.Is(err, billing.ErrLimitReached) {
			respond.Error(c, http.StatusForbidden, "limit_reached", "Portfolio limit reached. Upgrade to Pro for unlimited portfolios.", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create portfolio", nil)
		return
	}
	respond.JSON(c, http.StatusCreated, p)
}

func (h *Handler) listPortfolios(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	portfolios, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list portfolios", nil)
		return
	}
	if portfolios == nil {
		portfolios = []Portfolio{}
	}
	respond.OK(c, portfolios)
}

func (h *Handler) getPortfolio(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	portfolioID, ok := pathID(c, "id")
	if !ok {
		return
	}

	p, err := h.Svc.Get(c.Request.Context(), userID, portfolioID)
	if err != nil {
		respondPortfolioError(c, err)
		return
	}
	respond.OK(c, p)
}

func (h *Handler) renamePortfolio(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	portfolioID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "name is required", nil)
		return
	}

	p, err := h.Svc.Rename(c.Request.Context(), userID, portfolioID, strings.TrimSpace(req.Name))
	if err != nil {
		respondPortfolioError(c, err)
		return
	}
	respond.OK(c, p)
}

func (h *Handler) deletePortfolio(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	portfolioID, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.Svc.Delete(c.Request.Context(), userID, portfolioID); err != nil {
		respondPortfolioError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addHolding(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	portfolioID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req holdingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "ticker and a positive shares count are required", nil)
		return
	}

	holding, err := h.Svc.AddHolding(c.Request.Context(), userID, portfolioID, req.Ticker, req.Shares)
	if err != nil {
		if errors.Is(err, billing.ErrLimitReached) {
			respond.Error(c, http.StatusForbidden, "limit_reached", "Holding limit reached. Upgrade to Pro for unlimited holdings.", nil)
			return
		}
		respondPortfolioError(c, err)
		return
	}
	respond.JSON(c, http.StatusCreated, holding)
}

func (h *Handler) updateHolding(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	portfolioID, ok := pathID(c, "id")
	if !ok {
		return
	}
	holdingID, ok := pathID(c, "holdingID")
	if !ok {
		return
	}
	var req sharesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "a positive shares count is required", nil)
		return
	}

	holding, err := h.Svc.UpdateShares(c.Request.Context(), userID, portfolioID, holdingID, req.Shares)
	if err != nil {
		respondPortfolioError(c, err)
		return
	}
	respond.OK(c, holding)
}

func (h *Handler) deleteHolding(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	portfolioID, ok := pathID(c, "id")
	if !ok {
		return
	}
	holdingID, ok := pathID(c, "holdingID")
	if !ok {
		return
	}

	if err := h.Svc.RemoveHolding(c.Request.Context(), userID, portfolioID, holdingID); err != nil {
		respondPortfolioError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) refreshHoldings(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	portfolioID, ok := pathID(c, "id")
	if !ok {
		return
	}

	holdings, err := h.Svc.RefreshHoldings(c.Request.Context(), userID, portfolioID)
	if err != nil {
		respondPortfolioError(c, err)
		return
	}
	if holdings == nil {
		holdings = []Holding{}
	}
	respond.OK(c, holdings)
}

func (h *Handler) getSnapshot(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	portfolioID, ok := pathID(c, "id")
	if !ok {
		return
	}

	snap, err := h.Svc.Snapshot(c.Request.Context(), userID, portfolioID)
	if err != nil {
		respondPortfolioError(c, err)
		return
	}
	respond.OK(c, snap)
}

func (h *Handler) getSectors(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	portfolioID, ok := pathID(c, "id")
	if !ok {
		return
	}

	sectors, err := h.Svc.Sectors(c.Request.Context(), userID, portfolioID)
	if err != nil {
		respondPortfolioError(c, err)
		return
	}
	respond.OK(c, sectors)
}

func (h *Handler) getInsights(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	portfolioID, ok := pathID(c, "id")
	if !ok {
		return
	}

	insights, err := h.Svc.Insights(c.Request.Context(), userID, portfolioID)
	if err != nil {
		respondPortfolioError(c, err)
		return
	}
	respond.OK(c, insights)
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", name+" must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func respondPortfolioError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "portfolio not found", nil)
		return
	}
	respond.Error(c, http.StatusInternalServerError, "internal_error", "portfolio operation failed", nil)
}
