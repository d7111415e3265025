// Package library asks the media server to rescan after an ingest lands.
//
// The server is a closed choice (none, plex, jellyfin) resolved at
// construction; an unknown name is a configuration error rather than a
// silent no-op. Plex rescans only the sections whose type matches the
// ingested media, discovering section keys once per process. Jellyfin has
// no per-type refresh, so every ingest triggers a full library refresh.
package library
