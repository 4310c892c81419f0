package webhook

import "errors"

// Domain-specific errors for webhook delivery.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrDeliveryFailed is returned when every delivery attempt for an
	// event has failed.
	ErrDeliveryFailed = errors.New("webhook: event delivery failed")

	// ErrGatewayClosed is returned when an event is submitted after the
	// gateway has begun shutting down.
	ErrGatewayClosed = errors.New("webhook: gateway is closed")
)
