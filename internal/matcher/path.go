package matcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"videodrome/internal/catalog"
	"videodrome/internal/logging"
	"videodrome/internal/mediaparse"
	"videodrome/internal/textutil"
)

// EpisodeTitler resolves episode names for TV paths.
type EpisodeTitler interface {
	EpisodeTitle(ctx context.Context, showID int64, season, episode int) (string, error)
}

// PathBuilder lays out canonical library paths under a media root.
type PathBuilder struct {
	root      string
	moviesDir string
	tvDir     string
	titles    EpisodeTitler
	logger    *slog.Logger
}

// NewPathBuilder constructs a builder. Empty folder names fall back to
// "Movies" and "TV Shows"; titles may be nil, in which case every episode uses
// the generic label.
func NewPathBuilder(root, moviesDir, tvDir string, titles EpisodeTitler, logger *slog.Logger) *PathBuilder {
	if strings.TrimSpace(moviesDir) == "" {
		moviesDir = "Movies"
	}
	if strings.TrimSpace(tvDir) == "" {
		tvDir = "TV Shows"
	}
	return &PathBuilder{
		root:      filepath.Clean(root),
		moviesDir: moviesDir,
		tvDir:     tvDir,
		titles:    titles,
		logger:    logging.NewComponentLogger(logger, "paths"),
	}
}

// Root returns the media root every built path lives under.
func (b *PathBuilder) Root() string {
	return b.root
}

// Build returns the canonical destination for originalFilename. The extension
// of originalFilename is preserved verbatim.
func (b *PathBuilder) Build(ctx context.Context, guess mediaparse.Guess, candidate catalog.Candidate, originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	name := displayName(candidate.Name, guess.Title)
	year := candidate.Year()
	if year <= 0 {
		year = guess.Year
	}
	if guess.IsEpisode() {
		return b.episodePath(ctx, guess, candidate, name, year, ext)
	}
	return b.moviePath(candidate, name, year, ext)
}

func (b *PathBuilder) moviePath(candidate catalog.Candidate, name string, year int, ext string) string {
	base := withYear(name, year) + fmt.Sprintf(" {catalog-%d}", candidate.ID)
	return filepath.Join(b.root, b.moviesDir, base, base+ext)
}

func (b *PathBuilder) episodePath(ctx context.Context, guess mediaparse.Guess, candidate catalog.Candidate, name string, year int, ext string) string {
	season := guess.Season
	if season < 0 {
		season = 0
	}
	episode := guess.Episode
	if episode <= 0 {
		episode = 1
	}
	show := withYear(name, year)
	title := b.episodeTitle(ctx, candidate.ID, season, episode)
	filename := fmt.Sprintf("%s - s%02de%02d - %s%s", show, season, episode, title, ext)
	return filepath.Join(b.root, b.tvDir, show, fmt.Sprintf("Season %02d", season), filename)
}

func (b *PathBuilder) episodeTitle(ctx context.Context, showID int64, season, episode int) string {
	fallback := "Episode " + strconv.Itoa(episode)
	if b.titles == nil {
		return fallback
	}
	title, err := b.titles.EpisodeTitle(ctx, showID, season, episode)
	if err != nil {
		b.logger.Debug("episode title lookup failed; using generic label",
			logging.Int64(logging.FieldCatalogID, showID),
			logging.Int("season", season),
			logging.Int("episode", episode),
			logging.Error(err),
		)
		return fallback
	}
	if clean := textutil.SanitizeDisplayName(title); clean != "" {
		return clean
	}
	return fallback
}

// displayName sanitizes the candidate name, falling back to the parsed title
// when sanitizing leaves nothing usable as a path segment.
func displayName(candidateName, guessTitle string) string {
	for _, raw := range []string{candidateName, guessTitle} {
		name := textutil.SanitizeDisplayName(raw)
		if name != "" && strings.Trim(name, ".") != "" {
			return name
		}
	}
	return "Unknown"
}

func withYear(name string, year int) string {
	if year <= 0 {
		return name
	}
	return fmt.Sprintf("%s (%d)", name, year)
}
