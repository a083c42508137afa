package config

import (
	"github.com/openrelay/hookstack/internal/logger"
	"github.com/openrelay/hookstack/internal/tracing"
)

type Config struct {
	AppConfig           *AppConfig
	Logger              *logger.Config
	Tracing             *tracing.JaegerConfig
	AutomationConfig    *AutomationWebhookConfig
	VoiceToolConfig     *VoiceToolWebhookConfig
	VoicePostCallConfig *VoicePostCallWebhookConfig
	DedupConfig         *DedupConfig
}

type AppConfig struct {
	APIPort       string `env:"PORT" envDefault:"8080"`
	Environment   string `env:"APP_ENV" envDefault:"development"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`
	RabbitMQURL   string `env:"RABBITMQ_URL"`
}

// AutomationWebhookConfig authenticates the automation platform's
// callbacks. The platform signs each delivery with a tight anti-replay
// window.
type AutomationWebhookConfig struct {
	Secret string `env:"AUTOMATION_WEBHOOK_SECRET"`
	// AllowUnverified lets unsigned requests through when no secret is
	// configured. Ignored in production.
	AllowUnverified  bool  `env:"AUTOMATION_ALLOW_UNVERIFIED" envDefault:"false"`
	ToleranceSeconds int64 `env:"AUTOMATION_SIGNATURE_TOLERANCE_SECONDS" envDefault:"300"`
	// AllowDefaultEntity routes events without a resolvable user to the
	// shared "default" identity instead of rejecting them.
	AllowDefaultEntity bool `env:"AUTOMATION_ALLOW_DEFAULT_ENTITY" envDefault:"false"`
}

// VoiceToolWebhookConfig covers the voice agent's tool-execution
// callback. That provider does not sign deliveries; identity comes from
// the request itself.
type VoiceToolWebhookConfig struct {
	AllowedTools []string `env:"VOICE_TOOL_ALLOWED_TOOLS" envSeparator:","`
}

// VoicePostCallWebhookConfig authenticates the voice agent's post-call
// transcript callback. The provider retries with backoff, so the replay
// window is deliberately loose.
type VoicePostCallWebhookConfig struct {
	Secret           string `env:"ELEVENLABS_WEBHOOK_SECRET"`
	AllowUnverified  bool   `env:"ELEVENLABS_ALLOW_UNVERIFIED" envDefault:"false"`
	ToleranceSeconds int64  `env:"ELEVENLABS_SIGNATURE_TOLERANCE_SECONDS" envDefault:"1800"`
}

type DedupConfig struct {
	Enabled    bool   `env:"DEDUP_ENABLED" envDefault:"false"`
	RedisURL   string `env:"DEDUP_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	TTLSeconds int64  `env:"DEDUP_TTL_SECONDS" envDefault:"86400"`
}

func (c *Config) IsProduction() bool {
	return c.AppConfig.Environment == "production"
}
