package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/openrelay/hookstack/internal/logger"
	"github.com/openrelay/hookstack/internal/tracing"
)

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:           &AppConfig{},
		Logger:              &logger.Config{},
		Tracing:             &tracing.JaegerConfig{},
		AutomationConfig:    &AutomationWebhookConfig{},
		VoiceToolConfig:     &VoiceToolWebhookConfig{},
		VoicePostCallConfig: &VoicePostCallWebhookConfig{},
		DedupConfig:         &DedupConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading hookstack config: %v", err)
	}

	return config, nil
}
