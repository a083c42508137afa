package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openrelay/hookstack/config"
	"github.com/openrelay/hookstack/dto"
	"github.com/openrelay/hookstack/services"
)

type APIHandlers struct {
	Automation    *AutomationHandler
	VoiceTool     *VoiceToolHandler
	VoicePostCall *VoicePostCallHandler
}

func InitHandlers(cfg *config.Config, svc *services.Services) *APIHandlers {
	return &APIHandlers{
		Automation:    NewAutomationHandler(cfg, svc),
		VoiceTool:     NewVoiceToolHandler(cfg, svc),
		VoicePostCall: NewVoicePostCallHandler(cfg, svc),
	}
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: c.GetString("RequestId"),
	})
}

// HealthCheck provides the top-level liveness endpoint
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
