// Package logging assembles the structured slog loggers used across
// photoscan and the bounded StreamHub buffer that retains recent scan
// output for the logs API.
//
// It owns the console/JSON handlers, level and output plumbing, and the
// well-known attribute keys (component, path, scan_id) that let the stream
// buffer surface per-file scan outcomes. A no-op logger is provided for
// tests and wiring code that cannot fail.
package logging
