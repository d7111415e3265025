// Package notifications delivers ingest events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Each event family
// (ingests, review queue, errors) can be muted independently.
package notifications
