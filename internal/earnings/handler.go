package earnings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockbuddy-backend/internal/shared/server/middleware"
	"stockbuddy-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers for earnings records. The analysis trigger
// lives with the other workflow triggers; this surface is read-only.
type Handler struct {
	Records Repo
}

// NewHandler constructs a Handler.
func NewHandler(records Repo) *Handler {
	return &Handler{Records: records}
}

// RegisterRoutes attaches earnings routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stocks/:ticker/earnings", h.listEarnings)
}

func (h *Handler) listEarnings(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	ticker := c.Param("ticker")
	if ticker == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "ticker is required", nil)
		return
	}

	records, err := h.Records.ListByTicker(c.Request.Context(), userID, ticker)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load earnings records", nil)
		return
	}
	if records == nil {
		records = []Record{}
	}
	respond.OK(c, records)
}
