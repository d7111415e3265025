// Package torrent wraps the Transmission RPC API with the narrow surface the
// completion poller needs: list finished torrents and remove them without
// touching their data.
package torrent
