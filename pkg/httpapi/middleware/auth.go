package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware checks a single shared-secret bearer token, adapted from
// the simpler half of the teacher's tryAPIKeyAuth (pkg/api/middleware/auth.go):
// this domain has no multi-tenant user/role model to carry a JWTService or
// APIKeyStore for, just one operator's browse/action API. An empty token
// disables the check entirely, matching config.Config.APIAuthToken's
// documented "empty disables auth" semantics.
func AuthMiddleware(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
				"hint":  "provide Bearer token",
			})
			return
		}

		if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Next()
	}
}
