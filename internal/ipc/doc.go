// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response DTOs. Most
// payloads are the api package types so HTTP and IPC consumers see the same
// shapes. Errors cross the wire as strings: a not-found approve or reject
// surfaces as a client error containing "not found".
//
// Reuse these types when adding new RPC endpoints to keep the protocol stable
// and compatible with existing command implementations.
package ipc
