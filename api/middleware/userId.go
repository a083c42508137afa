package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const UserIDHeader = "X-User-Id"

// UserIdMiddleware captures the optional explicit caller identity the
// voice provider sends alongside tool callbacks.
func UserIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId := strings.TrimSpace(c.GetHeader(UserIDHeader))

		// Store in gin context for later use
		c.Set("UserId", userId)
		c.Next()
	}
}
