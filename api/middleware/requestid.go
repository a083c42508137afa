package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openrelay/hookstack/internal/utils"
)

const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware propagates the caller's request id or mints one,
// so every log line and span for a delivery can be cross-referenced with
// the provider's delivery logs.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if requestID == "" {
			requestID = utils.GenerateRequestID()
		}

		c.Set("RequestId", requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}
