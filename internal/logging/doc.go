// Package logging assembles structured slog loggers and formatting helpers used
// across bookwatch.
//
// It owns the configurable console/JSON handlers, fans output out to the
// terminal and a persistent log file, and exposes context-aware helpers so
// batch and watch code can tag log lines with batch IDs, monitored entity IDs,
// and request IDs. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
package logging
