package marketdata

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"stockbuddy-backend/internal/shared/server/respond"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 50
)

// Handler exposes the ticker search endpoint.
type Handler struct {
	Search SearchGateway
}

// NewHandler constructs a Handler.
func NewHandler(search SearchGateway) *Handler {
	return &Handler{Search: search}
}

// RegisterRoutes attaches stock search routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stocks/search", h.searchStocks)
}

func (h *Handler) searchStocks(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "q is required", nil)
		return
	}

	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxSearchLimit {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be between 1 and 50", nil)
			return
		}
		limit = parsed
	}

	respond.OK(c, h.Search.SearchTickers(c.Request.Context(), query, limit))
}
