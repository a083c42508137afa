package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openrelay/hookstack/config"
	"github.com/openrelay/hookstack/dto"
)

// ConfigIntrospection echoes the webhook addresses this deployment
// answers on, for pasting into provider dashboards. No secret material.
func ConfigIntrospection(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		base := strings.TrimSuffix(cfg.AppConfig.PublicBaseURL, "/")
		c.JSON(http.StatusOK, dto.ConfigIntrospection{
			Environment: cfg.AppConfig.Environment,
			WebhookURLs: map[string]string{
				"automation":    base + "/webhooks/automation",
				"voiceTool":     base + "/webhooks/voice/tool",
				"voicePostCall": base + "/webhooks/voice/post-call",
			},
		})
	}
}
