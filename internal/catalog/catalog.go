// Package catalog defines the metadata catalog contract the matcher searches:
// candidate records, the query shape, and the Client interface implemented by
// the TMDB adapter.
package catalog

import (
	"context"
	"strconv"
)

// Kind tags what a candidate describes.
type Kind string

const (
	KindMovie Kind = "movie"
	KindShow  Kind = "show"
)

// Candidate is one catalog search result.
type Candidate struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	ReleaseDate string  `json:"release_date,omitempty"`
	Popularity  float64 `json:"popularity"`
	Kind        Kind    `json:"kind"`
	Seasons     []int   `json:"seasons,omitempty"`
	SeasonCount int     `json:"season_count,omitempty"`
}

// Year returns the four-digit year prefix of ReleaseDate, or 0 when the date
// is empty or malformed.
func (c Candidate) Year() int {
	if len(c.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(c.ReleaseDate[:4])
	if err != nil || year <= 0 {
		return 0
	}
	return year
}

// Query describes one catalog search.
type Query struct {
	Title string
	Year  int
	Kind  Kind
}

// Client searches the catalog. Implementations return candidates in the
// catalog's own ranking order.
type Client interface {
	Search(ctx context.Context, query Query) ([]Candidate, error)
	EpisodeTitle(ctx context.Context, showID int64, season, episode int) (string, error)
}
