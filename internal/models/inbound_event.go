package models

import (
	"time"

	"github.com/openrelay/hookstack/internal/enum"
)

// Recognized metadata keys on an InboundEvent.
const (
	MetadataConnectionID  = "connectionId"
	MetadataEntityID      = "entityId"
	MetadataIntegrationID = "integrationId"
	MetadataTriggerID     = "triggerId"
)

// InboundEvent is the canonical, provider-agnostic representation of a
// verified webhook delivery. It is constructed once per accepted request
// and never mutated afterwards.
type InboundEvent struct {
	ID             string                 `json:"id"`
	SourceProvider enum.SourceProvider    `json:"sourceProvider"`
	AppName        string                 `json:"appName"`
	Payload        map[string]interface{} `json:"payload"`
	Metadata       map[string]string      `json:"metadata"`
	ReceivedAt     time.Time              `json:"receivedAt"`
}

// EntityID returns the owning user id. Events without one are rejected
// at the HTTP boundary, so downstream consumers can rely on it being set.
func (e *InboundEvent) EntityID() string {
	return e.Metadata[MetadataEntityID]
}

func (e *InboundEvent) ConnectionID() string {
	return e.Metadata[MetadataConnectionID]
}

// DedupKey returns a provider-stable identifier for duplicate
// suppression, or "" when the payload carries nothing stable across
// redeliveries. The event ID itself is minted per request and cannot be
// used.
func (e *InboundEvent) DedupKey() string {
	if id, ok := e.Payload["id"].(string); ok && id != "" {
		return e.SourceProvider.String() + ":" + id
	}
	if triggerID := e.Metadata[MetadataTriggerID]; triggerID != "" {
		return e.SourceProvider.String() + ":" + triggerID
	}
	if connectionID := e.ConnectionID(); connectionID != "" {
		return e.SourceProvider.String() + ":" + connectionID
	}
	return ""
}
