// Package logging provides structured logging for the GymLink relay.
//
// It wraps log/slog with the relay's conventions: JSON output by default,
// service/version default attributes, and string level parsing so the level
// can come straight from config.yaml.
package logging
