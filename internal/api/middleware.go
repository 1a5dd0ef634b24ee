package api

import (
	"net/http"
	"strings"

	"storefront/internal/models"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// requireRole authenticates the bearer token and rejects callers with a
// different role.
func (h *Handler) requireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		id, err := h.verifier.Authenticate(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			h.writeError(c, err)
			c.Abort()
			return
		}
		if id.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// identity returns the caller set by requireRole
func identity(c *gin.Context) *models.Identity {
	return c.MustGet(identityKey).(*models.Identity)
}
