// Package daemon coordinates the long-running Videodrome process.
//
// It wires configuration, the audit log, the matcher, the ingest executor and
// the directory watcher into a single lifecycle with flock-based locking to
// prevent multiple instances. On start it reconciles orphaned PENDING rows,
// schedules recurring maintenance with cron, optionally starts the watcher
// and serves the HTTP API.
//
// Keep orchestration logic here: decision policy lives in the watcher and the
// two-phase ingest lives in the ingest package, while the daemon focuses on
// startup, shutdown, and high level coordination.
package daemon
