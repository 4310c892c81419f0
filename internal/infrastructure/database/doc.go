// Package database provides SQLite connectivity for the GymLink relay.
//
// The relay uses SQLite for exactly one thing: the local hardware event
// audit trail. Events are written by the relay's event stream (single
// writer) and read by operators investigating incidents, so WAL mode plus a
// busy timeout covers the concurrency needs.
//
// Schema changes ship as embedded migrations (see the migrations package)
// and are applied at startup, each in its own transaction.
//
// Security Considerations:
//   - All queries use parameterised statements
//   - Database file permissions are set to 0600 (owner read/write only)
package database
