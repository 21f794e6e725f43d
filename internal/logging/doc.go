// Package logging assembles the structured slog loggers used by the CLI and
// the directory watcher.
//
// It owns the console and JSON handlers, level parsing, and output plumbing,
// and exposes context helpers so pipeline code tags every line with the run
// ID and stage. A no-op logger is provided for tests and wiring code that
// cannot fail.
package logging
