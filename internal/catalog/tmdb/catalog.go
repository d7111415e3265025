package tmdb

import (
	"context"
	"strings"

	"videodrome/internal/catalog"
)

var _ catalog.Client = (*Client)(nil)

// Search runs a movie or TV search depending on query.Kind and converts the
// results to catalog candidates in TMDB's ranking order.
func (c *Client) Search(ctx context.Context, query catalog.Query) ([]catalog.Candidate, error) {
	opts := SearchOptions{Year: query.Year}
	var (
		resp *Response
		err  error
	)
	if query.Kind == catalog.KindShow {
		resp, err = c.SearchTV(ctx, query.Title, opts)
	} else {
		resp, err = c.SearchMovie(ctx, query.Title, opts)
	}
	if err != nil {
		return nil, err
	}
	candidates := make([]catalog.Candidate, 0, len(resp.Results))
	for _, result := range resp.Results {
		candidates = append(candidates, toCandidate(result))
	}
	return candidates, nil
}

// EpisodeTitle returns the episode's name, or an error when TMDB has none.
func (c *Client) EpisodeTitle(ctx context.Context, showID int64, season, episode int) (string, error) {
	ep, err := c.GetEpisode(ctx, showID, season, episode)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(ep.Name), nil
}

func toCandidate(result Result) catalog.Candidate {
	kind := catalog.KindMovie
	if result.MediaType == "tv" {
		kind = catalog.KindShow
	}
	popularity := result.Popularity
	if popularity < 0 {
		popularity = 0
	}
	return catalog.Candidate{
		ID:          result.ID,
		Name:        result.DisplayName(),
		ReleaseDate: result.Date(),
		Popularity:  popularity,
		Kind:        kind,
	}
}
