package services

import (
	"time"

	"github.com/pkg/errors"

	"github.com/openrelay/hookstack/config"
	"github.com/openrelay/hookstack/interfaces"
	er "github.com/openrelay/hookstack/internal/errors"
	"github.com/openrelay/hookstack/internal/idempotency"
	"github.com/openrelay/hookstack/internal/logger"
	"github.com/openrelay/hookstack/services/dispatcher"
	"github.com/openrelay/hookstack/services/events"
	"github.com/openrelay/hookstack/services/verifier"
)

type Services struct {
	Publisher             interfaces.EventPublisher
	Dispatcher            *dispatcher.Dispatcher
	AgentExecutor         interfaces.AgentExecutor
	MemoryStore           interfaces.MemoryStore
	IdempotencyStore      interfaces.IdempotencyStore
	AutomationVerifier    *verifier.Verifier
	VoicePostCallVerifier *verifier.Verifier
}

func InitServices(cfg *config.Config, log logger.Logger) (*Services, error) {
	// Refuse to expose unauthenticated webhook routes in production.
	if cfg.IsProduction() {
		if cfg.AutomationConfig.Secret == "" {
			return nil, errors.Wrap(er.ErrSecretNotSet, "automation webhook")
		}
		if cfg.VoicePostCallConfig.Secret == "" {
			return nil, errors.Wrap(er.ErrSecretNotSet, "voice post-call webhook")
		}
	}

	publisherConfig := &events.PublisherConfig{
		MessageTTL:          events.DefaultMessageTTL,
		MaxRetries:          events.DefaultMaxRetries,
		PublishTimeout:      events.DefaultPublishTimeout,
		ReconnectBackoff:    events.DefaultReconnectBackoff,
		MaxReconnectBackoff: events.DefaultMaxReconnectBackoff,
	}

	publisher, err := events.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log, publisherConfig)
	if err != nil {
		return nil, err
	}

	var dedup interfaces.IdempotencyStore
	if cfg.DedupConfig.Enabled {
		dedup, err = idempotency.NewRedisStore(cfg.DedupConfig.RedisURL, time.Duration(cfg.DedupConfig.TTLSeconds)*time.Second)
		if err != nil {
			return nil, err
		}
	}

	services := Services{
		Publisher:        publisher,
		Dispatcher:       dispatcher.NewDispatcher(events.NewPublisherSink(publisher), dedup, log),
		AgentExecutor:    events.NewQueueAgentExecutor(publisher),
		MemoryStore:      events.NewBrokerMemoryStore(publisher),
		IdempotencyStore: dedup,
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

	return &services, nil
}
