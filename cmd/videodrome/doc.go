// Package main hosts the Videodrome CLI entrypoint and command graph.
//
// The Cobra command tree translates terminal invocations into IPC calls
// against the running daemon: watcher control, the pending review queue,
// manual matches, audit history, and maintenance. Only `start`, `stop`,
// `status`, the hidden `daemon` runner and `config` work without a daemon.
package main
