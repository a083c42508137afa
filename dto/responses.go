package dto

// ErrorResponse is the structured error body returned for rejected
// webhook requests. Code is one of the stable machine-readable codes.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId"`
}

// AutomationAck acknowledges an automation-platform delivery. It is
// sent as soon as the event is scheduled, independent of background
// processing.
type AutomationAck struct {
	Status         string `json:"status"`
	EventID        string `json:"eventId"`
	RequestID      string `json:"requestId"`
	Timestamp      string `json:"timestamp"`
	ProcessingTime string `json:"processingTime"`
}

// VoiceToolResponse is consumed by the voice agent, which relays the
// message to the caller.
type VoiceToolResponse struct {
	Success          bool                   `json:"success"`
	Message          string                 `json:"message"`
	Data             map[string]interface{} `json:"data,omitempty"`
	ExecutionDetails *ExecutionDetails      `json:"execution_details"`
}

type ExecutionDetails struct {
	Tool      string `json:"tool"`
	UserID    string `json:"user_id"`
	RequestID string `json:"request_id"`
}

// VoicePostCallResponse acknowledges a post-call transcript delivery.
// Status "partial_success" signals that receipt succeeded but memory
// storage did not; the provider must not retry.
type VoicePostCallResponse struct {
	Received       bool   `json:"received"`
	Processed      bool   `json:"processed"`
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`
	MemoriesStored int    `json:"memories_stored"`
	Status         string `json:"status"`
}

// HealthResponse reports liveness plus configuration presence for one
// webhook route. It never contains secret material.
type HealthResponse struct {
	Status           string `json:"status"`
	Provider         string `json:"provider"`
	SecretConfigured bool   `json:"secretConfigured"`
	Environment      string `json:"environment"`
}

// ConfigIntrospection echoes the endpoint addresses this deployment
// answers on.
type ConfigIntrospection struct {
	Environment string            `json:"environment"`
	WebhookURLs map[string]string `json:"webhookUrls"`
}
