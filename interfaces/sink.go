package interfaces

import (
	"context"

	"github.com/openrelay/hookstack/internal/models"
)

// ProcessingSink receives canonical events for downstream processing.
// Ownership of the event passes to the sink; the dispatcher delivers
// at-most-once unless an idempotency store is configured, in which case
// delivery is at-least-once with duplicate suppression.
type ProcessingSink interface {
	Process(ctx context.Context, event *models.InboundEvent) error
}

type EventPublisher interface {
	PublishInboundEvent(ctx context.Context, event *models.InboundEvent) error
	Close() error
}

// AgentExecutor runs a natural-language instruction on behalf of a user.
// The voice tool callback awaits the result because the voice agent
// relays it to the caller.
type AgentExecutor interface {
	ExecuteInstruction(ctx context.Context, userID string, instruction string) (*models.ExecutionResult, error)
}

// MemoryStore persists post-call transcripts. Returns the number of
// memories stored.
type MemoryStore interface {
	StoreConversation(ctx context.Context, userID string, event *models.InboundEvent) (int, error)
}

// IdempotencyStore suppresses duplicate webhook redeliveries.
// CheckAndSet atomically marks key as processed and reports whether this
// call was the first to do so.
type IdempotencyStore interface {
	CheckAndSet(ctx context.Context, key string) (bool, error)
	Close() error
}
