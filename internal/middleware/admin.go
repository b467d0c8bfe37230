package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nutribowl/storefront/internal/auth"
)

// AdminKeyHeader carries the shared admin secret.
const AdminKeyHeader = "x-admin-key"

// AdminMiddleware rejects requests whose x-admin-key header does not match apiKey.
func AdminMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get the Admin Key ---
		key := c.GetHeader(AdminKeyHeader)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		// 2. --- Compare in Constant Time ---
		if !auth.ConstantTimeEqual(key, apiKey) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		// 3. --- Success ---
		c.Set("isAdmin", true)
		c.Next()
	}
}
