package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/saferoute/saferoute-backend-go/internal/auth"
)

// DeviceIDKey is the gin context key holding the authenticated device ID.
const DeviceIDKey = "device_id"

// Auth validates the Bearer token and stores the device ID on the context.
func Auth(tokens *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "missing bearer token",
			})
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "invalid or expired token",
			})
			return
		}

		c.Set(DeviceIDKey, claims.DeviceID)
		c.Next()
	}
}

// DeviceID returns the authenticated device ID from the context.
func DeviceID(c *gin.Context) string {
	return c.GetString(DeviceIDKey)
}
