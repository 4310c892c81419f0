package relay

import "errors"

// Domain-specific errors for relay operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrBadSecret is returned when a handshake presents a secret that does
	// not match the configured admin secret.
	ErrBadSecret = errors.New("relay: invalid shared secret")

	// ErrMissingTenant is returned when a handshake carries no gym id.
	ErrMissingTenant = errors.New("relay: gym id is required")

	// ErrMalformedMessage is returned when an inbound message is not valid
	// JSON or its payload fails boundary validation.
	ErrMalformedMessage = errors.New("relay: malformed message")

	// ErrUnknownMessageType is returned when an inbound envelope carries a
	// type the relay does not recognise.
	ErrUnknownMessageType = errors.New("relay: unknown message type")
)
