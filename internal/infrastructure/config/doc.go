// Package config loads and validates GymLink relay configuration.
//
// Configuration is read from a YAML file with three layers of precedence:
//
//  1. Hardcoded defaults
//  2. YAML file values
//  3. GYMLINK_* environment variables
//
// The admin shared secret is the only hard requirement: a relay cannot admit
// any bridge or dashboard connection without it, so Load fails rather than
// starting a server that rejects everything. The webhook secret is
// deliberately softer - the relay degrades to relay-only operation when the
// cloud endpoint cannot be authenticated against.
package config
