// Package tmdb provides the minimal TMDB API client used to match inbound
// media files.
//
// It authenticates requests and exposes movie and TV search with an optional
// release-year filter, season/episode detail lookups, and show detail
// retrieval. Requests share a token-bucket limiter so batch matching stays
// under TMDB's rate limits. Client also satisfies catalog.Client so the
// matcher never sees TMDB's wire types.
package tmdb
