// Package history persists the ingest audit log and the catalog search cache
// in SQLite.
//
// Every ingest attempt is recorded before any file is touched (PENDING) and
// then resolved to SUCCESS or FAILED. Transitions only move forward, and
// repeating a terminal transition is a no-op so a retried resolution after a
// crash is safe. Non-failed rows double as the duplicate index the watcher
// consults before filing a match. The search_cache table satisfies the
// matcher's cache contract with a configurable expiry.
package history
