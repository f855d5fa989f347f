// Package logging assembles structured slog loggers and formatting helpers used
// across kdvd.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and defines the standard attribute keys (component, event_type,
// error_hint, impact, session_id) so every component emits log lines with the
// same shape. The package also provides a no-op logger for tests and wiring
// code that cannot fail.
//
// Loggers are always passed explicitly; nothing here installs a process-wide
// default.
package logging
