package normalizer

import (
	"time"

	"github.com/openrelay/hookstack/internal/enum"
	"github.com/openrelay/hookstack/internal/models"
	"github.com/openrelay/hookstack/internal/utils"
)

// EventTypePostCallTranscription is the only post-call event type that
// produces a canonical event. All other types are acknowledged and
// ignored.
const EventTypePostCallTranscription = "post_call_transcription"

// NormalizeVoicePostCall maps a post-call transcript payload to the
// canonical event. A nil event with a nil error means the event type is
// deliberately ignored, not a failure.
func NormalizeVoicePostCall(payload map[string]interface{}, headerUserID string, receivedAt time.Time) (*models.InboundEvent, error) {
	if payload == nil {
		return nil, newError(models.CodeInvalidBody, "", "empty payload")
	}

	if stringField(payload, "type") != EventTypePostCallTranscription {
		return nil, nil
	}

	entityID, _ := resolveIdentity(voicePostCallIdentityStrategies, headerUserID, payload)
	if entityID == "" {
		return nil, newError(models.CodeMissingUserAuth, "user_id", "no owning user in transcript payload")
	}

	metadata := map[string]string{
		models.MetadataEntityID: entityID,
	}
	if conversationID := conversationID(payload); conversationID != "" {
		metadata[models.MetadataConnectionID] = conversationID
	}

	return &models.InboundEvent{
		ID:             utils.GenerateEventID(),
		SourceProvider: enum.ProviderVoicePostCall,
		AppName:        "voice",
		Payload:        payload,
		Metadata:       metadata,
		ReceivedAt:     receivedAt,
	}, nil
}

// ConversationID extracts the provider's conversation id from a
// post-call payload, checking the nested data object first.
func ConversationID(payload map[string]interface{}) string {
	return conversationID(payload)
}

func conversationID(payload map[string]interface{}) string {
	if id := stringField(mapField(payload, "data"), "conversation_id"); id != "" {
		return id
	}
	return stringField(payload, "conversation_id")
}
