package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stockbuddy-backend/internal/shared/server/respond"
)

const userIDKey = "userId"

// TokenVerifier resolves a bearer token to an opaque user identifier.
// Verification itself (JWKS, issuer checks) lives outside this service.
type TokenVerifier func(token string) (string, error)

// Auth extracts the caller identity and stores it in the request context.
// Requests without a resolvable identity are rejected.
func Auth(verify TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		userID, err := verify(token)
		if err != nil || strings.TrimSpace(userID) == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserIDFromContext returns the user ID stored by Auth.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
