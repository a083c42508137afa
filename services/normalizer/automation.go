package normalizer

import (
	"strings"
	"time"

	"github.com/openrelay/hookstack/internal/enum"
	"github.com/openrelay/hookstack/internal/models"
	"github.com/openrelay/hookstack/internal/utils"
)

// DefaultEntityID is the shared identity automation events fall back to
// when no user id is present and the fallback is explicitly enabled.
// Events routed here are a degraded, untrusted case.
const DefaultEntityID = "default"

type AutomationOptions struct {
	// AllowDefaultEntity routes events without a resolvable user to
	// DefaultEntityID instead of rejecting them.
	AllowDefaultEntity bool
}

// NormalizeAutomation maps an automation-platform payload to the
// canonical event. The app name is derived from the event type's first
// separator: "gmail_new_message" belongs to the "gmail" integration.
func NormalizeAutomation(payload map[string]interface{}, receivedAt time.Time, opts AutomationOptions) (*models.InboundEvent, error) {
	if payload == nil {
		return nil, newError(models.CodeInvalidBody, "", "empty payload")
	}

	appName := appNameFromEventType(stringField(payload, "type"))

	entityID, _ := resolveIdentity(automationIdentityStrategies, "", payload)
	if entityID == "" {
		if !opts.AllowDefaultEntity {
			return nil, newError(models.CodeMissingUserAuth, "entityId", "no owning user in payload")
		}
		entityID = DefaultEntityID
	}

	metadata := map[string]string{
		models.MetadataEntityID: entityID,
	}
	if connectionID := firstString(payload, "connectionId", "connection_id"); connectionID != "" {
		metadata[models.MetadataConnectionID] = connectionID
	}
	if integrationID := firstString(payload, "integrationId", "integration_id"); integrationID != "" {
		metadata[models.MetadataIntegrationID] = integrationID
	}
	if triggerID := firstString(payload, "triggerId", "trigger_id"); triggerID != "" {
		metadata[models.MetadataTriggerID] = triggerID
	}

	return &models.InboundEvent{
		ID:             utils.GenerateEventID(),
		SourceProvider: enum.ProviderAutomation,
		AppName:        appName,
		Payload:        payload,
		Metadata:       metadata,
		ReceivedAt:     receivedAt,
	}, nil
}

func appNameFromEventType(eventType string) string {
	if eventType == "" {
		return "unknown"
	}
	if idx := strings.IndexAny(eventType, "._"); idx > 0 {
		return eventType[:idx]
	}
	return eventType
}

func firstString(payload map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value := stringField(payload, key); value != "" {
			return value
		}
	}
	return ""
}
