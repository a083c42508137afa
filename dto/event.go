package dto

import (
	"github.com/openrelay/hookstack/internal/enum"
	"github.com/openrelay/hookstack/internal/models"
)

// Event is the envelope published to the message broker for downstream
// consumers.
type Event struct {
	Event    EventDetails  `json:"event"`
	Metadata EventMetadata `json:"metadata"`
}

type EventDetails struct {
	Id       string               `json:"id"`
	EntityId string               `json:"entityId"`
	Provider enum.SourceProvider  `json:"provider"`
	AppName  string               `json:"appName"`
	Data     *models.InboundEvent `json:"data"`
}

type EventMetadata struct {
	UberTraceId string `json:"uber-trace-id"`
	AppSource   string `json:"appSource"`
	RequestId   string `json:"requestId"`
	Timestamp   string `json:"timestamp"`
}
