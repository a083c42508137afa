package api

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/openrelay/hookstack/api/handlers"
	"github.com/openrelay/hookstack/api/middleware"
	"github.com/openrelay/hookstack/config"
	"github.com/openrelay/hookstack/internal/tracing"
	"github.com/openrelay/hookstack/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(r *gin.Engine, cfg *config.Config, s *services.Services) {
	if s == nil {
		panic("Services cannot be nil")
	}

	// Add recovery middlewares
	r.Use(gin.Recovery())                                         // Gin's built-in recovery
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer())) // Our custom Jaeger recovery

	// setup handlers
	apiHandlers := handlers.InitHandlers(cfg, s)

	// Health check (no request-id needed)
	r.GET("/health", handlers.HealthCheck)

	webhooks := r.Group("/webhooks")
	webhooks.Use(middleware.RequestIDMiddleware())
	webhooks.Use(middleware.UserIdMiddleware())
	{
		webhooks.GET("/config", handlers.ConfigIntrospection(cfg))

		automation := webhooks.Group("/automation")
		{
			automation.POST("", apiHandlers.Automation.Webhook())
			automation.POST("/test", apiHandlers.Automation.Test())
			automation.GET("/health", apiHandlers.Automation.Health())
		}

		voiceTool := webhooks.Group("/voice/tool")
		{
			voiceTool.POST("", apiHandlers.VoiceTool.Webhook())
			voiceTool.GET("/health", apiHandlers.VoiceTool.Health())
		}

		voicePostCall := webhooks.Group("/voice/post-call")
		{
			voicePostCall.POST("", apiHandlers.VoicePostCall.Webhook())
			voicePostCall.GET("/health", apiHandlers.VoicePostCall.Health())
		}
	}
}
