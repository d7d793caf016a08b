// Package logging assembles structured slog loggers and formatting helpers used
// across cddasrc.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so session and rip code can tag log lines
// with a session ID, device path, and track number. The package also provides
// a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so that every
// component emits records with the same shape.
package logging
