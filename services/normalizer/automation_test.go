package normalizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrelay/hookstack/internal/enum"
	"github.com/openrelay/hookstack/internal/models"
)

var receivedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNormalizeAutomation_AppNameAndEntity(t *testing.T) {
	payload := map[string]interface{}{
		"type": "gmail_new_message",
		"data": map[string]interface{}{"user_id": "u1"},
	}

	event, err := NormalizeAutomation(payload, receivedAt, AutomationOptions{})

	require.NoError(t, err)
	assert.Equal(t, "gmail", event.AppName)
	assert.Equal(t, "u1", event.EntityID())
	assert.Equal(t, enum.ProviderAutomation, event.SourceProvider)
	assert.Equal(t, receivedAt, event.ReceivedAt)
	assert.NotEmpty(t, event.ID)
}

func TestNormalizeAutomation_AppNameVariants(t *testing.T) {
	tests := []struct {
		eventType string
		appName   string
	}{
		{"gmail_new_message", "gmail"},
		{"slack.message_received", "slack"},
		{"calendar_event_created", "calendar"},
		{"standalone", "standalone"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			payload := map[string]interface{}{
				"data": map[string]interface{}{"user_id": "u1"},
			}
			if tt.eventType != "" {
				payload["type"] = tt.eventType
			}

			event, err := NormalizeAutomation(payload, receivedAt, AutomationOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.appName, event.AppName)
		})
	}
}

func TestNormalizeAutomation_IdentityPriorityOrder(t *testing.T) {
	// data.user_id wins over every alternately named top-level field
	payload := map[string]interface{}{
		"type":     "gmail_new_message",
		"data":     map[string]interface{}{"user_id": "nested"},
		"entityId": "camel",
		"userId":   "top",
	}
	event, err := NormalizeAutomation(payload, receivedAt, AutomationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "nested", event.EntityID())

	// without the nested field the top-level chain applies in order
	delete(payload, "data")
	event, err = NormalizeAutomation(payload, receivedAt, AutomationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "camel", event.EntityID())

	delete(payload, "entityId")
	event, err = NormalizeAutomation(payload, receivedAt, AutomationOptions{})
	require.NoError(t, err)
	assert.Equal(t, "top", event.EntityID())
}

func TestNormalizeAutomation_SnakeCaseEntityField(t *testing.T) {
	payload := map[string]interface{}{
		"type":      "gmail_new_message",
		"entity_id": "snake",
	}

	event, err := NormalizeAutomation(payload, receivedAt, AutomationOptions{})

	require.NoError(t, err)
	assert.Equal(t, "snake", event.EntityID())
}

func TestNormalizeAutomation_MissingIdentityRejected(t *testing.T) {
	payload := map[string]interface{}{
		"type": "gmail_new_message",
	}

	_, err := NormalizeAutomation(payload, receivedAt, AutomationOptions{})

	require.Error(t, err)
	normErr, ok := err.(*NormalizationError)
	require.True(t, ok)
	assert.Equal(t, models.CodeMissingUserAuth, normErr.Code)
}

func TestNormalizeAutomation_DefaultEntityFallbackOptIn(t *testing.T) {
	payload := map[string]interface{}{
		"type": "gmail_new_message",
	}

	event, err := NormalizeAutomation(payload, receivedAt, AutomationOptions{AllowDefaultEntity: true})

	require.NoError(t, err)
	assert.Equal(t, DefaultEntityID, event.EntityID())
}

func TestNormalizeAutomation_MetadataExtraction(t *testing.T) {
	payload := map[string]interface{}{
		"type":          "gmail_new_message",
		"data":          map[string]interface{}{"user_id": "u1"},
		"connection_id": "conn-1",
		"integrationId": "int-1",
		"trigger_id":    "trig-1",
	}

	event, err := NormalizeAutomation(payload, receivedAt, AutomationOptions{})

	require.NoError(t, err)
	assert.Equal(t, "conn-1", event.Metadata[models.MetadataConnectionID])
	assert.Equal(t, "int-1", event.Metadata[models.MetadataIntegrationID])
	assert.Equal(t, "trig-1", event.Metadata[models.MetadataTriggerID])
}

func TestNormalizeAutomation_NilPayload(t *testing.T) {
	_, err := NormalizeAutomation(nil, receivedAt, AutomationOptions{})

	require.Error(t, err)
	assert.Equal(t, models.CodeInvalidBody, err.(*NormalizationError).Code)
}

func TestNormalizeAutomation_PayloadPreserved(t *testing.T) {
	payload := map[string]interface{}{
		"type": "gmail_new_message",
		"data": map[string]interface{}{"user_id": "u1", "message_id": "m-9"},
	}

	event, err := NormalizeAutomation(payload, receivedAt, AutomationOptions{})

	require.NoError(t, err)
	assert.Equal(t, payload, event.Payload)
}
