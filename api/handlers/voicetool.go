package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/openrelay/hookstack/config"
	"github.com/openrelay/hookstack/dto"
	"github.com/openrelay/hookstack/internal/enum"
	"github.com/openrelay/hookstack/internal/models"
	"github.com/openrelay/hookstack/internal/tracing"
	"github.com/openrelay/hookstack/internal/utils"
	"github.com/openrelay/hookstack/services"
	"github.com/openrelay/hookstack/services/normalizer"
)

type VoiceToolHandler struct {
	cfg *config.Config
	svc *services.Services
}

func NewVoiceToolHandler(cfg *config.Config, svc *services.Services) *VoiceToolHandler {
	return &VoiceToolHandler{cfg: cfg, svc: svc}
}

// Webhook handles a voice-agent tool-execution callback. Unlike the
// other providers this one awaits the execution result, because the
// voice agent relays it to the caller mid-conversation.
func (h *VoiceToolHandler) Webhook() gin.HandlerFunc {
	return func(c *gin.Context) {
		receivedAt := utils.Now()

		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "VoiceToolHandler.Webhook", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagProvider(span, enum.ProviderVoiceTool.String())
		tracing.TagRequestId(span, c.GetString("RequestId"))
		c.Request = c.Request.WithContext(ctx)

		rawBody, err := c.GetRawData()
		if err != nil {
			tracing.TraceErr(span, err)
			respondError(c, http.StatusBadRequest, models.CodeInvalidBody, "unable to read request body")
			return
		}

		var payload map[string]interface{}
		if err := json.Unmarshal(rawBody, &payload); err != nil {
			tracing.TraceErr(span, err)
			respondError(c, http.StatusBadRequest, models.CodeInvalidBody, "request body is not valid JSON")
			return
		}

		event, invocation, err := normalizer.NormalizeVoiceTool(payload, c.GetString("UserId"), receivedAt)
		if err != nil {
			tracing.TraceErr(span, err)
			status := http.StatusBadRequest
			if normalizationCode(err) == models.CodeMissingUserAuth {
				status = http.StatusUnauthorized
			}
			respondError(c, status, normalizationCode(err), err.Error())
			return
		}
		tracing.TagEntity(span, event.EntityID())

		if !h.toolAllowed(invocation.Tool) {
			respondError(c, http.StatusForbidden, models.CodeToolNotSupported,
				errors.Errorf("tool %s is not enabled for this deployment", invocation.Tool).Error())
			return
		}

		c.Set("UserId", event.EntityID())
		execCtx := utils.WithCustomContextFromGinRequest(c, enum.ProviderVoiceTool.String())
		result, err := h.svc.AgentExecutor.ExecuteInstruction(execCtx, event.EntityID(), invocation.Instruction)
		if err != nil {
			tracing.TraceErr(span, err)
			code, status := executionFailure(err)
			respondError(c, status, code, "tool execution failed")
			return
		}

		c.JSON(http.StatusOK, dto.VoiceToolResponse{
			Success: result.Success,
			Message: result.Message,
			Data:    result.Data,
			ExecutionDetails: &dto.ExecutionDetails{
				Tool:      invocation.Tool,
				UserID:    event.EntityID(),
				RequestID: c.GetString("RequestId"),
			},
		})
	}
}

func (h *VoiceToolHandler) Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.HealthResponse{
			Status:      "ok",
			Provider:    enum.ProviderVoiceTool.String(),
			Environment: h.cfg.AppConfig.Environment,
		})
	}
}

// toolAllowed enforces the optional allow-list; an empty list permits
// every translated tool.
func (h *VoiceToolHandler) toolAllowed(tool string) bool {
	if len(h.cfg.VoiceToolConfig.AllowedTools) == 0 {
		return true
	}
	for _, allowed := range h.cfg.VoiceToolConfig.AllowedTools {
		if allowed == tool {
			return true
		}
	}
	return false
}

// executionFailure remaps downstream execution errors onto the fixed
// error-code vocabulary the voice agent understands.
func executionFailure(err error) (string, int) {
	var execErr *models.ExecutionError
	if errors.As(err, &execErr) {
		switch execErr.Code {
		case models.CodeToolNotSupported:
			return execErr.Code, http.StatusForbidden
		case models.CodeRateLimited:
			return execErr.Code, http.StatusTooManyRequests
		default:
			return models.CodeExecutionFailed, http.StatusInternalServerError
		}
	}
	return models.CodeExecutionFailed, http.StatusInternalServerError
}
