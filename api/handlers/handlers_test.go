package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrelay/hookstack/api/middleware"
	"github.com/openrelay/hookstack/config"
	"github.com/openrelay/hookstack/dto"
	"github.com/openrelay/hookstack/internal/logger"
	"github.com/openrelay/hookstack/internal/models"
	"github.com/openrelay/hookstack/services"
	"github.com/openrelay/hookstack/services/dispatcher"
	"github.com/openrelay/hookstack/services/verifier"
)

const (
	automationSecret = "automation-test-secret"
	postCallSecret   = "post-call-test-secret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func getTestLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

type captureSink struct {
	mu     sync.Mutex
	events []*models.InboundEvent
}

func (s *captureSink) Process(_ context.Context, event *models.InboundEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type fakeExecutor struct {
	result *models.ExecutionResult
	err    error

	lastUserID      string
	lastInstruction string
}

func (f *fakeExecutor) ExecuteInstruction(_ context.Context, userID, instruction string) (*models.ExecutionResult, error) {
	f.lastUserID = userID
	f.lastInstruction = instruction
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeMemoryStore struct {
	stored int
	err    error
	calls  int
}

func (f *fakeMemoryStore) StoreConversation(_ context.Context, _ string, _ *models.InboundEvent) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.stored, nil
}

type testHarness struct {
	router   *gin.Engine
	cfg      *config.Config
	sink     *captureSink
	executor *fakeExecutor
	memory   *fakeMemoryStore
	svc      *services.Services
}

func newTestHarness(t *testing.T, mutate func(*config.Config)) *testHarness {
	t.Helper()

	cfg := &config.Config{
		AppConfig: &config.AppConfig{
			APIPort:       "8080",
			Environment:   "test",
			PublicBaseURL: "http://localhost:8080",
		},
		AutomationConfig: &config.AutomationWebhookConfig{
			Secret:           automationSecret,
			ToleranceSeconds: 300,
		},
		VoiceToolConfig: &config.VoiceToolWebhookConfig{},
		VoicePostCallConfig: &config.VoicePostCallWebhookConfig{
			Secret:           postCallSecret,
			ToleranceSeconds: 1800,
		},
		DedupConfig: &config.DedupConfig{},
	}
	if mutate != nil {
		mutate(cfg)
	}

	log := getTestLogger()
	sink := &captureSink{}
	executor := &fakeExecutor{result: &models.ExecutionResult{Success: true, Message: "Email sent"}}
	memory := &fakeMemoryStore{stored: 3}

	svc := &services.Services{
		Dispatcher:    dispatcher.NewDispatcher(sink, nil, log),
		AgentExecutor: executor,
		MemoryStore:   memory,
		AutomationVerifier: verifier.NewVerifier(verifier.Config{
			Secret:           cfg.AutomationConfig.Secret,
			ToleranceSeconds: cfg.AutomationConfig.ToleranceSeconds,
			AllowUnverified:  cfg.AutomationConfig.AllowUnverified,
			Production:       cfg.IsProduction(),
		}, log),
		VoicePostCallVerifier: verifier.NewVerifier(verifier.Config{
			Secret:           cfg.VoicePostCallConfig.Secret,
			ToleranceSeconds: cfg.VoicePostCallConfig.ToleranceSeconds,
			AllowUnverified:  cfg.VoicePostCallConfig.AllowUnverified,
			Production:       cfg.IsProduction(),
		}, log),
	}

	router := gin.New()
	apiHandlers := InitHandlers(cfg, svc)
	webhooks := router.Group("/webhooks")
	webhooks.Use(middleware.RequestIDMiddleware())
	webhooks.Use(middleware.UserIdMiddleware())
	webhooks.POST("/automation", apiHandlers.Automation.Webhook())
	webhooks.POST("/automation/test", apiHandlers.Automation.Test())
	webhooks.GET("/automation/health", apiHandlers.Automation.Health())
	webhooks.POST("/voice/tool", apiHandlers.VoiceTool.Webhook())
	webhooks.POST("/voice/post-call", apiHandlers.VoicePostCall.Webhook())

	return &testHarness{router: router, cfg: cfg, sink: sink, executor: executor, memory: memory, svc: svc}
}

func (h *testHarness) do(req *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	h.router.ServeHTTP(recorder, req)
	return recorder
}

func signedAutomationRequest(t *testing.T, payload map[string]interface{}, at time.Time) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	timestamp := at.Unix()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/automation", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(timestamp, 10))
	req.Header.Set(HeaderSignature, verifier.SignPayload(automationSecret, timestamp, body))
	return req
}

func decodeError(t *testing.T, recorder *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	return resp
}

func TestAutomationWebhook_ValidDelivery(t *testing.T) {
	h := newTestHarness(t, nil)

	payload := map[string]interface{}{
		"type": "gmail_new_message",
		"data": map[string]interface{}{"user_id": "u1", "subject": "hello"},
	}
	recorder := h.do(signedAutomationRequest(t, payload, time.Now()))

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var ack dto.AutomationAck
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &ack))
	assert.Equal(t, "success", ack.Status)
	assert.NotEmpty(t, ack.EventID)
	assert.NotEmpty(t, ack.RequestID)
	assert.Equal(t, ack.RequestID, recorder.Header().Get(middleware.RequestIDHeader))

	require.True(t, h.svc.Dispatcher.Drain(2*time.Second))
	require.Equal(t, 1, h.sink.count())
	assert.Equal(t, "u1", h.sink.events[0].EntityID())
	assert.Equal(t, "gmail", h.sink.events[0].AppName)
}

func TestAutomationWebhook_ExpiredTimestamp(t *testing.T) {
	h := newTestHarness(t, nil)

	payload := map[string]interface{}{
		"type": "gmail_new_message",
		"data": map[string]interface{}{"user_id": "u1"},
	}
	recorder := h.do(signedAutomationRequest(t, payload, time.Now().Add(-10*time.Minute)))

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	resp := decodeError(t, recorder)
	assert.Equal(t, models.CodeExpiredTimestamp, resp.Code)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, 0, h.sink.count())
}

func TestAutomationWebhook_TamperedBody(t *testing.T) {
	h := newTestHarness(t, nil)

	original := []byte(`{"type":"gmail_new_message","data":{"user_id":"u1"}}`)
	tampered := []byte(`{"type":"gmail_new_message","data":{"user_id":"attacker"}}`)
	timestamp := time.Now().Unix()

	req := httptest.NewRequest(http.MethodPost, "/webhooks/automation", bytes.NewReader(tampered))
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(timestamp, 10))
	req.Header.Set(HeaderSignature, verifier.SignPayload(automationSecret, timestamp, original))

	recorder := h.do(req)

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, models.CodeInvalidSignature, decodeError(t, recorder).Code)
}

func TestAutomationWebhook_MissingHeaders(t *testing.T) {
	h := newTestHarness(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/automation", bytes.NewReader([]byte(`{}`)))
	recorder := h.do(req)

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, models.CodeMissingSignature, decodeError(t, recorder).Code)
}

func TestAutomationWebhook_InvalidJSON(t *testing.T) {
	h := newTestHarness(t, nil)

	body := []byte("not json at all")
	timestamp := time.Now().Unix()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/automation", bytes.NewReader(body))
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(timestamp, 10))
	req.Header.Set(HeaderSignature, verifier.SignPayload(automationSecret, timestamp, body))

	recorder := h.do(req)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, models.CodeInvalidBody, decodeError(t, recorder).Code)
}

func TestAutomationWebhook_MissingIdentity(t *testing.T) {
	h := newTestHarness(t, nil)

	recorder := h.do(signedAutomationRequest(t, map[string]interface{}{
		"type": "gmail_new_message",
		"data": map[string]interface{}{},
	}, time.Now()))

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, models.CodeMissingUserAuth, decodeError(t, recorder).Code)
	assert.Equal(t, 0, h.sink.count())
}

func TestAutomationTest_DisabledInProduction(t *testing.T) {
	h := newTestHarness(t, func(cfg *config.Config) {
		cfg.AppConfig.Environment = "production"
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/automation/test", bytes.NewReader([]byte(`{"a":1}`)))
	recorder := h.do(req)

	require.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestAutomationTest_SignsBody(t *testing.T) {
	h := newTestHarness(t, nil)

	body := []byte(`{"type":"gmail_new_message"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/automation/test", bytes.NewReader(body))
	recorder := h.do(req)

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp struct {
		Timestamp int64  `json:"timestamp"`
		Signature string `json:"signature"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, verifier.SignPayload(automationSecret, resp.Timestamp, body), resp.Signature)
}

func TestAutomationHealth(t *testing.T) {
	h := newTestHarness(t, nil)

	recorder := h.do(httptest.NewRequest(http.MethodGet, "/webhooks/automation/health", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp dto.HealthResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.SecretConfigured)
}

func voiceToolRequest(t *testing.T, payload map[string]interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/voice/tool", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestVoiceToolWebhook_Success(t *testing.T) {
	h := newTestHarness(t, nil)

	recorder := h.do(voiceToolRequest(t, map[string]interface{}{
		"tool_name": "gmail_send_email",
		"user_id":   "u2",
		"parameters": map[string]interface{}{
			"to":      "a@example.com",
			"subject": "Hi",
			"body":    "Hello there",
		},
	}))

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var resp dto.VoiceToolResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Email sent", resp.Message)
	require.NotNil(t, resp.ExecutionDetails)
	assert.Equal(t, "send_email", resp.ExecutionDetails.Tool)
	assert.Equal(t, "u2", resp.ExecutionDetails.UserID)

	assert.Equal(t, "u2", h.executor.lastUserID)
	assert.Contains(t, h.executor.lastInstruction, "a@example.com")
}

func TestVoiceToolWebhook_MissingIdentity(t *testing.T) {
	h := newTestHarness(t, nil)

	recorder := h.do(voiceToolRequest(t, map[string]interface{}{
		"tool_name":  "gmail_send_email",
		"parameters": map[string]interface{}{"to": "a@example.com"},
	}))

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, models.CodeMissingUserAuth, decodeError(t, recorder).Code)
}

func TestVoiceToolWebhook_HeaderIdentity(t *testing.T) {
	h := newTestHarness(t, nil)

	req := voiceToolRequest(t, map[string]interface{}{
		"tool_name":  "gmail_send_email",
		"parameters": map[string]interface{}{"to": "a@example.com"},
	})
	req.Header.Set(middleware.UserIDHeader, "header-user")
	recorder := h.do(req)

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Equal(t, "header-user", h.executor.lastUserID)
}

func TestVoiceToolWebhook_ToolNotAllowed(t *testing.T) {
	h := newTestHarness(t, func(cfg *config.Config) {
		cfg.VoiceToolConfig.AllowedTools = []string{"search_email"}
	})

	recorder := h.do(voiceToolRequest(t, map[string]interface{}{
		"tool_name":  "gmail_send_email",
		"user_id":    "u2",
		"parameters": map[string]interface{}{"to": "a@example.com"},
	}))

	require.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Equal(t, models.CodeToolNotSupported, decodeError(t, recorder).Code)
}

func TestVoiceToolWebhook_ExecutionFailures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "rate limited",
			err:        models.NewExecutionError(models.CodeRateLimited, "too many requests"),
			wantStatus: http.StatusTooManyRequests,
			wantCode:   models.CodeRateLimited,
		},
		{
			name:       "unsupported downstream",
			err:        models.NewExecutionError(models.CodeToolNotSupported, "no such tool"),
			wantStatus: http.StatusForbidden,
			wantCode:   models.CodeToolNotSupported,
		},
		{
			name:       "plain error",
			err:        errors.New("agent unavailable"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   models.CodeExecutionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness(t, nil)
			h.executor.err = tt.err

			recorder := h.do(voiceToolRequest(t, map[string]interface{}{
				"tool_name":  "gmail_send_email",
				"user_id":    "u2",
				"parameters": map[string]interface{}{"to": "a@example.com"},
			}))

			require.Equal(t, tt.wantStatus, recorder.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, recorder).Code)
		})
	}
}

func signedPostCallRequest(t *testing.T, payload map[string]interface{}, at time.Time) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	timestamp := at.Unix()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/voice/post-call", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderElevenLabsSignature,
		fmt.Sprintf("t=%d,v0=%s", timestamp, verifier.SignPayload(postCallSecret, timestamp, body)))
	return req
}

func transcriptionPayload() map[string]interface{} {
	return map[string]interface{}{
		"type": "post_call_transcription",
		"data": map[string]interface{}{
			"conversation_id": "conv-9",
			"conversation_initiation_client_data": map[string]interface{}{
				"dynamic_variables": map[string]interface{}{"user_id": "u3"},
			},
		},
	}
}

func TestVoicePostCallWebhook_Success(t *testing.T) {
	h := newTestHarness(t, nil)

	recorder := h.do(signedPostCallRequest(t, transcriptionPayload(), time.Now()))

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var resp dto.VoicePostCallResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.True(t, resp.Received)
	assert.True(t, resp.Processed)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "conv-9", resp.ConversationID)
	assert.Equal(t, "u3", resp.UserID)
	assert.Equal(t, 3, resp.MemoriesStored)
	assert.Equal(t, 1, h.memory.calls)
}

func TestVoicePostCallWebhook_IgnoredType(t *testing.T) {
	h := newTestHarness(t, nil)

	payload := transcriptionPayload()
	payload["type"] = "post_call_audio"
	recorder := h.do(signedPostCallRequest(t, payload, time.Now()))

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp dto.VoicePostCallResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.True(t, resp.Received)
	assert.False(t, resp.Processed)
	assert.Equal(t, "ignored", resp.Status)
	assert.Equal(t, 0, h.memory.calls)
}

func TestVoicePostCallWebhook_ExpiredWindow(t *testing.T) {
	h := newTestHarness(t, nil)

	recorder := h.do(signedPostCallRequest(t, transcriptionPayload(), time.Now().Add(-31*time.Minute)))

	require.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Equal(t, models.CodeExpiredTimestamp, decodeError(t, recorder).Code)
}

func TestVoicePostCallWebhook_BadDigest(t *testing.T) {
	h := newTestHarness(t, nil)

	body := []byte(`{"type":"post_call_transcription"}`)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/voice/post-call", bytes.NewReader(body))
	req.Header.Set(HeaderElevenLabsSignature, fmt.Sprintf("t=%d,v0=%s", time.Now().Unix(), "deadbeef"))
	recorder := h.do(req)

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, models.CodeInvalidSignature, decodeError(t, recorder).Code)
}

func TestVoicePostCallWebhook_StoreFailureIsPartialSuccess(t *testing.T) {
	h := newTestHarness(t, nil)
	h.memory.err = errors.New("memory service down")

	recorder := h.do(signedPostCallRequest(t, transcriptionPayload(), time.Now()))

	require.Equal(t, http.StatusOK, recorder.Code)

	var resp dto.VoicePostCallResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.True(t, resp.Received)
	assert.False(t, resp.Processed)
	assert.Equal(t, "partial_success", resp.Status)
	assert.Equal(t, 0, resp.MemoriesStored)
}

func TestVoicePostCallWebhook_MissingIdentity(t *testing.T) {
	h := newTestHarness(t, nil)

	payload := map[string]interface{}{
		"type": "post_call_transcription",
		"data": map[string]interface{}{"conversation_id": "conv-9"},
	}
	recorder := h.do(signedPostCallRequest(t, payload, time.Now()))

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, models.CodeMissingUserAuth, decodeError(t, recorder).Code)
}
