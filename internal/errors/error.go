package errors

import "github.com/pkg/errors"

var (
	// ErrSecretNotSet means a webhook route would run unauthenticated.
	// Startup refuses this in production.
	ErrSecretNotSet = errors.New("webhook secret is not configured")

	// ErrPublisherClosed is returned for publishes after shutdown began.
	ErrPublisherClosed = errors.New("event publisher is closed")
)
