package event

import (
	"context"
	"time"

	"github.com/gymlink/gymlink-relay/internal/relay"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Entry represents a single audited hardware event row.
type Entry struct {
	// ID is the auto-incremented primary key for the event row.
	ID int64 `json:"id"`

	// GymID is the tenant the event belongs to.
	GymID string `json:"gym_id"`

	// Type is the hardware event type as reported by the bridge.
	Type string `json:"type"`

	// UserID is the gym member the event concerns.
	UserID int64 `json:"user_id"`

	// OccurredAt is the event timestamp (bridge-supplied or server-assigned, UTC).
	OccurredAt time.Time `json:"occurred_at"`

	// CreatedAt is when the relay recorded the row (UTC).
	CreatedAt time.Time `json:"created_at"`
}

// Repository stores and retrieves the hardware event audit trail.
//
// Implementations must be thread-safe and use UTC timestamps.
type Repository interface {
	// Record persists one relayed hardware event.
	Record(ctx context.Context, ev relay.HardwareEvent) error

	// ListByGym returns recent events for a gym, ordered newest first.
	// The limit is clamped (default 50, max 200).
	ListByGym(ctx context.Context, gymID string, limit int) ([]Entry, error)

	// Prune deletes events older than the given duration and returns the
	// number of rows removed.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}
