package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openrelay/hookstack/config"
	"github.com/openrelay/hookstack/dto"
	"github.com/openrelay/hookstack/internal/enum"
	"github.com/openrelay/hookstack/internal/models"
	"github.com/openrelay/hookstack/internal/tracing"
	"github.com/openrelay/hookstack/internal/utils"
	"github.com/openrelay/hookstack/services"
	"github.com/openrelay/hookstack/services/normalizer"
	"github.com/openrelay/hookstack/services/verifier"
)

const (
	HeaderSignature = "x-signature"
	HeaderTimestamp = "x-timestamp"
)

type AutomationHandler struct {
	cfg *config.Config
	svc *services.Services
}

func NewAutomationHandler(cfg *config.Config, svc *services.Services) *AutomationHandler {
	return &AutomationHandler{cfg: cfg, svc: svc}
}

// Webhook ingests a signed automation-platform delivery: verify,
// normalize, schedule background processing, ack. The ack never waits
// on processing; the platform retries aggressively on non-2xx and slow
// responses.
func (h *AutomationHandler) Webhook() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		receivedAt := utils.Now()

		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "AutomationHandler.Webhook", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagProvider(span, enum.ProviderAutomation.String())
		tracing.TagRequestId(span, c.GetString("RequestId"))
		c.Request = c.Request.WithContext(ctx)

		rawBody, err := c.GetRawData()
		if err != nil {
			tracing.TraceErr(span, err)
			respondError(c, http.StatusBadRequest, models.CodeInvalidBody, "unable to read request body")
			return
		}

		result := h.svc.AutomationVerifier.VerifySplitHeaders(
			rawBody,
			c.GetHeader(HeaderSignature),
			c.GetHeader(HeaderTimestamp),
			time.Now(),
		)
		if !result.Ok {
			respondError(c, http.StatusUnauthorized, signatureFailureCode(result.Reason), "signature verification failed")
			return
		}

		var payload map[string]interface{}
		if err := json.Unmarshal(rawBody, &payload); err != nil {
			tracing.TraceErr(span, err)
			respondError(c, http.StatusBadRequest, models.CodeInvalidBody, "request body is not valid JSON")
			return
		}

		event, err := normalizer.NormalizeAutomation(payload, receivedAt, normalizer.AutomationOptions{
			AllowDefaultEntity: h.cfg.AutomationConfig.AllowDefaultEntity,
		})
		if err != nil {
			tracing.TraceErr(span, err)
			respondError(c, http.StatusBadRequest, normalizationCode(err), err.Error())
			return
		}
		tracing.TagEntity(span, event.EntityID())

		c.Set("UserId", event.EntityID())
		dispatchCtx := utils.WithCustomContextFromGinRequest(c, enum.ProviderAutomation.String())
		h.svc.Dispatcher.Dispatch(dispatchCtx, event)

		c.JSON(http.StatusOK, dto.AutomationAck{
			Status:         "success",
			EventID:        event.ID,
			RequestID:      c.GetString("RequestId"),
			Timestamp:      receivedAt.Format(time.RFC3339),
			ProcessingTime: fmt.Sprintf("%dms", time.Since(started).Milliseconds()),
		})
	}
}

// Test signs an arbitrary payload with the configured secret so the
// endpoint can be exercised without the real provider. Disabled in
// production.
func (h *AutomationHandler) Test() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.cfg.IsProduction() {
			respondError(c, http.StatusForbidden, models.CodeInternalError, "test endpoint is disabled in production")
			return
		}

		rawBody, err := c.GetRawData()
		if err != nil || len(rawBody) == 0 {
			respondError(c, http.StatusBadRequest, models.CodeInvalidBody, "a JSON body to sign is required")
			return
		}

		timestamp := time.Now().Unix()
		c.JSON(http.StatusOK, gin.H{
			"timestamp": timestamp,
			"signature": verifier.SignPayload(h.cfg.AutomationConfig.Secret, timestamp, rawBody),
			"headers": gin.H{
				HeaderSignature: "<signature>",
				HeaderTimestamp: "<timestamp>",
			},
		})
	}
}

func (h *AutomationHandler) Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.HealthResponse{
			Status:           "ok",
			Provider:         enum.ProviderAutomation.String(),
			SecretConfigured: h.cfg.AutomationConfig.Secret != "",
			Environment:      h.cfg.AppConfig.Environment,
		})
	}
}

func signatureFailureCode(reason enum.FailureKind) string {
	switch reason {
	case enum.FailureExpired:
		return models.CodeExpiredTimestamp
	case enum.FailureMissingHeader, enum.FailureNoSecret:
		return models.CodeMissingSignature
	default:
		return models.CodeInvalidSignature
	}
}

func normalizationCode(err error) string {
	if normErr, ok := err.(*normalizer.NormalizationError); ok {
		return normErr.Code
	}
	return models.CodeInternalError
}
