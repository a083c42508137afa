package normalizer

import (
	"time"

	"github.com/openrelay/hookstack/internal/enum"
	"github.com/openrelay/hookstack/internal/models"
	"github.com/openrelay/hookstack/internal/utils"
)

// NormalizeVoiceTool maps a voice-agent tool-execution callback to the
// canonical event plus the translated tool invocation. The payload may
// arrive flat or nested under a "request_body" wrapper; both forms
// normalize identically.
func NormalizeVoiceTool(payload map[string]interface{}, headerUserID string, receivedAt time.Time) (*models.InboundEvent, *ToolInvocation, error) {
	if payload == nil {
		return nil, nil, newError(models.CodeInvalidBody, "", "empty payload")
	}

	// Identity is resolved against the original payload so the wrapped
	// location stays reachable.
	entityID, _ := resolveIdentity(voiceToolIdentityStrategies, headerUserID, payload)

	body := payload
	if wrapped := mapField(payload, "request_body"); wrapped != nil {
		body = wrapped
	}

	toolName := stringField(body, "tool_name")
	if toolName == "" {
		return nil, nil, newError(models.CodeMissingField, "tool_name", "tool name is required")
	}
	params := mapField(body, "parameters")
	if params == nil {
		return nil, nil, newError(models.CodeMissingField, "parameters", "parameters object is required")
	}

	if entityID == "" {
		return nil, nil, newError(models.CodeMissingUserAuth, "user_id", "no user identity in header or payload")
	}

	internalTool := translateToolName(toolName)
	invocation := &ToolInvocation{
		ProviderTool: toolName,
		Tool:         internalTool,
		Parameters:   params,
		Instruction:  formatInstruction(internalTool, params),
	}

	event := &models.InboundEvent{
		ID:             utils.GenerateEventID(),
		SourceProvider: enum.ProviderVoiceTool,
		AppName:        internalTool,
		Payload:        body,
		Metadata: map[string]string{
			models.MetadataEntityID: entityID,
		},
		ReceivedAt: receivedAt,
	}

	return event, invocation, nil
}
