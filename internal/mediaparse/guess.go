package mediaparse

import "fmt"

// Kind classifies what a filename appears to contain.
type Kind string

const (
	KindMovie   Kind = "movie"
	KindEpisode Kind = "episode"
	KindUnknown Kind = "unknown"
)

// Guess is the parser's best reading of a filename. Zero numeric fields mean
// the value was absent.
type Guess struct {
	Title   string `json:"title"`
	Year    int    `json:"year,omitempty"`
	Season  int    `json:"season,omitempty"`
	Episode int    `json:"episode,omitempty"`
	Kind    Kind   `json:"kind"`
}

// HasTitle reports whether the parser found something to search for.
func (g Guess) HasTitle() bool {
	return g.Title != ""
}

// IsEpisode reports whether the guess should be searched as a show.
func (g Guess) IsEpisode() bool {
	return g.Kind == KindEpisode
}

// EpisodeKey formats the season/episode pair as s01e02; empty for movies.
func (g Guess) EpisodeKey() string {
	if !g.IsEpisode() {
		return ""
	}
	return fmt.Sprintf("s%02de%02d", g.Season, g.Episode)
}
