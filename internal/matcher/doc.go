// Package matcher turns inbound filenames into catalog matches.
//
// Match parses a filename, searches the catalog (consulting a search cache
// first and retrying transient failures with exponential backoff), scores the
// top-ranked candidate, and builds the canonical library path the file should
// be filed under. BatchMatch fans the same pipeline out over many filenames
// with bounded concurrency; each slot resolves independently.
//
// Score and PathBuilder are exported separately so the watcher can re-derive
// paths for pending items without repeating a search.
package matcher
