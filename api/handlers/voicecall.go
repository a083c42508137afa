package handlers

import (
	"encoding/json"
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
)

const HeaderElevenLabsSignature = "elevenlabs-signature"

type VoicePostCallHandler struct {
	cfg *config.Config
	svc *services.Services
}

func NewVoicePostCallHandler(cfg *config.Config, svc *services.Services) *VoicePostCallHandler {
	return &VoicePostCallHandler{cfg: cfg, svc: svc}
}

// Webhook ingests a post-call transcript delivery. A memory-store
// failure is reported as a 200 "partial_success" rather than an error:
// receipt succeeded, and an error status would make the provider retry
// a delivery that was already ingested.
func (h *VoicePostCallHandler) Webhook() gin.HandlerFunc {
	return func(c *gin.Context) {
		receivedAt := utils.Now()

		ctx, span := tracing.StartHttpServerTracerSpanWithHeader(c.Request.Context(), "VoicePostCallHandler.Webhook", c.Request.Header)
		defer span.Finish()
		tracing.TagComponentRest(span)
		tracing.TagProvider(span, enum.ProviderVoicePostCall.String())
		tracing.TagRequestId(span, c.GetString("RequestId"))
		c.Request = c.Request.WithContext(ctx)

		rawBody, err := c.GetRawData()
		if err != nil {
			tracing.TraceErr(span, err)
			respondError(c, http.StatusBadRequest, models.CodeInvalidBody, "unable to read request body")
			return
		}

		result := h.svc.VoicePostCallVerifier.VerifyCompositeHeader(rawBody, c.GetHeader(HeaderElevenLabsSignature), time.Now())
		if !result.Ok {
			// This provider distinguishes an expired window from a bad digest.
			status := http.StatusUnauthorized
			if result.Reason == enum.FailureExpired {
				status = http.StatusForbidden
			}
			respondError(c, status, signatureFailureCode(result.Reason), "signature verification failed")
			return
		}

		var payload map[string]interface{}
		if err := json.Unmarshal(rawBody, &payload); err != nil {
			tracing.TraceErr(span, err)
			respondError(c, http.StatusBadRequest, models.CodeInvalidBody, "request body is not valid JSON")
			return
		}

		event, err := normalizer.NormalizeVoicePostCall(payload, c.GetString("UserId"), receivedAt)
		if err != nil {
			tracing.TraceErr(span, err)
			respondError(c, http.StatusUnauthorized, normalizationCode(err), err.Error())
			return
		}
		if event == nil {
			// Not a transcription event: acknowledged, nothing dispatched.
			c.JSON(http.StatusOK, dto.VoicePostCallResponse{
				Received:       true,
				Processed:      false,
				ConversationID: normalizer.ConversationID(payload),
				Status:         "ignored",
			})
			return
		}
		tracing.TagEntity(span, event.EntityID())

		c.Set("UserId", event.EntityID())
		storeCtx := utils.WithCustomContextFromGinRequest(c, enum.ProviderVoicePostCall.String())

		memoriesStored, err := h.svc.MemoryStore.StoreConversation(storeCtx, event.EntityID(), event)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusOK, dto.VoicePostCallResponse{
				Received:       true,
				Processed:      false,
				ConversationID: event.ConnectionID(),
				UserID:         event.EntityID(),
				MemoriesStored: 0,
				Status:         "partial_success",
			})
			return
		}

		c.JSON(http.StatusOK, dto.VoicePostCallResponse{
			Received:       true,
			Processed:      true,
			ConversationID: event.ConnectionID(),
			UserID:         event.EntityID(),
			MemoriesStored: memoriesStored,
			Status:         "success",
		})
	}
}

func (h *VoicePostCallHandler) Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.HealthResponse{
			Status:           "ok",
			Provider:         enum.ProviderVoicePostCall.String(),
			SecretConfigured: h.cfg.VoicePostCallConfig.Secret != "",
			Environment:      h.cfg.AppConfig.Environment,
		})
	}
}
