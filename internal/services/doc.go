// Package services defines shared utilities consumed by the ingest pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers, pipeline stages, and
//     source paths for logging and tracing.
//   - Structured error markers plus the Wrap helper so callers can classify a
//     failure (retryable, invalid input, missing record) without string matching.
//
// Use these helpers when wiring new pipeline steps so error handling and
// observability stay uniform across the watcher, poller, and API surfaces.
package services
