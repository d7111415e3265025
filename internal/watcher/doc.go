// Package watcher drives the ingest decision pipeline.
//
// A Watcher observes the ingest directory with fsnotify, waits for each new
// video file to stop growing, matches it against the catalog, then either
// ingests it immediately or parks it in the pending queue for an operator.
// An optional TorrentPoller feeds files from completed Transmission
// downloads through the same decision without the stability wait.
//
// Ownership: the tracking table belongs to one consumer goroutine. The
// fsnotify goroutine only forwards paths over a bounded channel. The
// pending queue is shared with API callers and carries its own mutex.
package watcher
