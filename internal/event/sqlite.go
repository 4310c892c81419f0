package event

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gymlink/gymlink-relay/internal/relay"
)

// SQLiteRepository implements Repository using SQLite.
//
// It stores one row per relayed hardware event in the events table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite event repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *SQLiteRepository: Repository instance ready for use
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Record inserts one audited hardware event.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - ev: Validated hardware event with gym id and timestamp already stamped
//
// Returns:
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteRepository) Record(ctx context.Context, ev relay.HardwareEvent) error {
	if ev.GymID == "" {
		return fmt.Errorf("gym id is required")
	}
	if ev.Type == "" {
		return fmt.Errorf("event type is required")
	}

	occurredAt := ev.Timestamp
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO events (gym_id, event_type, user_id, occurred_at) VALUES (?, ?, ?, ?)",
		ev.GymID,
		ev.Type,
		ev.UserID,
		occurredAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	return nil
}

// ListByGym returns recent events for a gym, ordered newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - gymID: Tenant to query
//   - limit: Maximum entries to return (default 50, max 200)
//
// Returns:
//   - []Entry: Event rows ordered by occurred_at DESC
//   - error: nil on success, otherwise the underlying query error
func (r *SQLiteRepository) ListByGym(ctx context.Context, gymID string, limit int) ([]Entry, error) {
	if gymID == "" {
		return nil, fmt.Errorf("gym id is required")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, gym_id, event_type, user_id, occurred_at, created_at
		 FROM events
		 WHERE gym_id = ?
		 ORDER BY occurred_at DESC
		 LIMIT ?`,
		gymID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var occurredAt string
		var createdAt string

		if err := rows.Scan(&entry.ID, &entry.GymID, &entry.Type, &entry.UserID, &occurredAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}

		occurred, err := parseEventTimestamp(occurredAt)
		if err != nil {
			return nil, err
		}
		entry.OccurredAt = occurred

		created, err := parseEventTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		entry.CreatedAt = created

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}

	return entries, nil
}

// Prune deletes events older than the given duration.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - olderThan: Duration to retain (rows older than now-olderThan are deleted)
//
// Returns:
//   - int64: Number of rows deleted
//   - error: nil on success, otherwise the underlying database error
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM events WHERE occurred_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting events: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}

	return rowsAffected, nil
}

// parseEventTimestamp parses a timestamp stored in SQLite.
func parseEventTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}

	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp, nil
	}

	fallback, fallbackErr := time.Parse("2006-01-02T15:04:05Z", value)
	if fallbackErr == nil {
		return fallback, nil
	}

	return time.Time{}, fmt.Errorf("parsing timestamp: %w", err)
}
