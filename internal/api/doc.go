// Package api defines wire-format types and converters for the IPC and HTTP
// API layer. It translates watcher, matcher and audit-log models into
// transport-friendly DTOs so the CLI and any HTTP consumer can render them
// without importing the pipeline packages.
//
// # Key Types
//
// DaemonStatus: daemon running state, lock and database paths, the watcher
// snapshot and audit-log totals.
//
// PendingItem: a queued match awaiting approve or reject.
//
// MatchResult: one slot of a manual batch match; Matched is false for files
// the catalog could not identify.
//
// HistoryRecord: one audit-log row.
//
// TorrentSummary: what the last poll cycle did with one torrent.
//
// # Design Notes
//
// DTOs use snake_case JSON tags. Timestamps are RFC3339 with milliseconds in
// UTC. Request bodies carry absolute source paths because the pending queue
// is keyed by path.
package api
