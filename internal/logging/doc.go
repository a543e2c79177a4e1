// Package logging provides structured logging for triad runs.
//
// It wraps log/slog with persistent attributes (run, agent, phase) so that
// per-agent dispatch status and arbiter fallbacks can be traced after the
// fact. Logs go to a JSON file when a path is configured, otherwise to
// stderr as text.
package logging
