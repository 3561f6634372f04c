package billing

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockbuddy-backend/internal/shared/server/middleware"
	"stockbuddy-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the billing service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches billing routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/billing/subscription", h.getSubscription)
}

func (h *Handler) getSubscription(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	sub, err := h.Svc.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load subscription", nil)
		return
	}
	respond.OK(c, gin.H{
		"subscription": sub,
		"limits":       LimitsFor(sub.Plan),
	})
}
