package events

import (
	"context"

	"github.com/pkg/errors"

	"github.com/openrelay/hookstack/interfaces"
	"github.com/openrelay/hookstack/internal/enum"
	"github.com/openrelay/hookstack/internal/models"
	"github.com/openrelay/hookstack/internal/utils"
)

// PublisherSink adapts the broker publisher to the ProcessingSink
// contract: processing an event means handing it to its downstream
// queue.
type PublisherSink struct {
	publisher interfaces.EventPublisher
}

func NewPublisherSink(publisher interfaces.EventPublisher) *PublisherSink {
	return &PublisherSink{publisher: publisher}
}

func (s *PublisherSink) Process(ctx context.Context, event *models.InboundEvent) error {
	return s.publisher.PublishInboundEvent(ctx, event)
}

// QueueAgentExecutor satisfies the AgentExecutor contract by enqueueing
// the instruction for the agent engine. The voice agent receives an
// acknowledgment message rather than the final tool output.
type QueueAgentExecutor struct {
	publisher interfaces.EventPublisher
}

func NewQueueAgentExecutor(publisher interfaces.EventPublisher) *QueueAgentExecutor {
	return &QueueAgentExecutor{publisher: publisher}
}

func (e *QueueAgentExecutor) ExecuteInstruction(ctx context.Context, userID string, instruction string) (*models.ExecutionResult, error) {
	event := &models.InboundEvent{
		ID:             utils.GenerateEventID(),
		SourceProvider: enum.ProviderVoiceTool,
		AppName:        "agent_instruction",
		Payload: map[string]interface{}{
			"instruction": instruction,
		},
		Metadata: map[string]string{
			models.MetadataEntityID: userID,
		},
		ReceivedAt: utils.Now(),
	}
	if err := e.publisher.PublishInboundEvent(ctx, event); err != nil {
		return nil, models.NewExecutionError(models.CodeExecutionFailed, errors.Wrap(err, "failed to enqueue instruction").Error())
	}
	return &models.ExecutionResult{
		Success: true,
		Message: "Instruction accepted for execution",
	}, nil
}

// BrokerMemoryStore persists transcripts by publishing them to the
// memory-store queue. The count reflects enqueued conversations, not
// individual memories.
type BrokerMemoryStore struct {
	publisher interfaces.EventPublisher
}

func NewBrokerMemoryStore(publisher interfaces.EventPublisher) *BrokerMemoryStore {
	return &BrokerMemoryStore{publisher: publisher}
}

func (m *BrokerMemoryStore) StoreConversation(ctx context.Context, userID string, event *models.InboundEvent) (int, error) {
	if err := m.publisher.PublishInboundEvent(ctx, event); err != nil {
		return 0, errors.Wrap(err, "failed to enqueue transcript for memory storage")
	}
	return 1, nil
}
