package relay

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message types carried in the envelope's "type" field.
const (
	// MsgTypeCloudCommand is sent by dashboards to instruct bridge hardware.
	MsgTypeCloudCommand = "cloud-command"

	// MsgTypeHardwareEvent is sent by bridges when gym hardware reports
	// activity (check-ins, door events and the like).
	MsgTypeHardwareEvent = "hardware-event"

	// MsgTypeBridgeStatus is sent by the relay to announce bridge presence
	// changes within a gym's group.
	MsgTypeBridgeStatus = "bridge-status"

	// MsgTypeError is sent by the relay to the originating connection when
	// an inbound message is rejected.
	MsgTypeError = "error"
)

// Bridge presence states carried in bridge-status payloads.
const (
	StatusOnline  = "ONLINE"
	StatusOffline = "OFFLINE"
)

// Envelope is the wire format for every relay message. The payload is kept
// raw so valid messages can be forwarded verbatim without re-encoding.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CloudCommand is the validated shape of a cloud-command payload. Fields
// beyond the action are opaque to the relay and pass through untouched.
type CloudCommand struct {
	Action string `json:"action"`
	UserID int64  `json:"userId,omitempty"`
}

// HardwareEvent is the validated shape of a hardware-event payload. GymID
// and Timestamp are filled in by the relay when persisting; bridges only
// need to supply the event type and user.
type HardwareEvent struct {
	Type      string    `json:"type"`
	UserID    int64     `json:"userId"`
	GymID     string    `json:"gymId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// BridgeStatus is the payload of a bridge-status message.
type BridgeStatus struct {
	Status string `json:"status"`
}

// ErrorPayload is the payload of an error message.
type ErrorPayload struct {
	Message string `json:"message"`
}

// DecodeInbound parses a raw frame received from a client connection and
// validates it against the known inbound message shapes.
//
// Returns the decoded envelope on success. On failure the returned error
// wraps ErrMalformedMessage or ErrUnknownMessageType and its text is safe
// to echo back to the sender.
func DecodeInbound(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: invalid JSON", ErrMalformedMessage)
	}

	switch env.Type {
	case MsgTypeCloudCommand:
		var cmd CloudCommand
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			return Envelope{}, fmt.Errorf("%w: invalid cloud-command payload", ErrMalformedMessage)
		}
		if cmd.Action == "" {
			return Envelope{}, fmt.Errorf("%w: cloud-command requires an action", ErrMalformedMessage)
		}
	case MsgTypeHardwareEvent:
		var ev HardwareEvent
		if err := json.Unmarshal(env.Payload, &ev); err != nil {
			return Envelope{}, fmt.Errorf("%w: invalid hardware-event payload", ErrMalformedMessage)
		}
		if ev.Type == "" {
			return Envelope{}, fmt.Errorf("%w: hardware-event requires a type", ErrMalformedMessage)
		}
	case "":
		return Envelope{}, fmt.Errorf("%w: missing type field", ErrMalformedMessage)
	default:
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}

	return env, nil
}

// DecodeHardwareEvent extracts the hardware-event payload from an envelope
// previously validated by DecodeInbound.
func (e Envelope) DecodeHardwareEvent() (HardwareEvent, error) {
	if e.Type != MsgTypeHardwareEvent {
		return HardwareEvent{}, fmt.Errorf("%w: expected %s, got %q", ErrUnknownMessageType, MsgTypeHardwareEvent, e.Type)
	}
	var ev HardwareEvent
	if err := json.Unmarshal(e.Payload, &ev); err != nil {
		return HardwareEvent{}, fmt.Errorf("%w: invalid hardware-event payload", ErrMalformedMessage)
	}
	return ev, nil
}

// EncodeBridgeStatus builds a bridge-status frame for the given presence
// state.
func EncodeBridgeStatus(online bool) ([]byte, error) {
	status := StatusOffline
	if online {
		status = StatusOnline
	}
	payload, err := json.Marshal(BridgeStatus{Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to encode bridge status: %w", err)
	}
	return json.Marshal(Envelope{Type: MsgTypeBridgeStatus, Payload: payload})
}

// EncodeError builds an error frame carrying the given message.
func EncodeError(message string) ([]byte, error) {
	payload, err := json.Marshal(ErrorPayload{Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to encode error payload: %w", err)
	}
	return json.Marshal(Envelope{Type: MsgTypeError, Payload: payload})
}
