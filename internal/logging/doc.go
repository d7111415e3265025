// Package logging assembles structured slog loggers and formatting helpers used
// across Videodrome services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with source paths, stages, and correlation IDs. The package also
// provides a no-op logger for tests and wiring code that cannot fail, plus
// retention pruning for per-run daemon log files.
package logging
