package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"videodrome/internal/catalog"
	"videodrome/internal/logging"
	"videodrome/internal/mediaparse"
	"videodrome/internal/services"
)

const (
	defaultAttempts    = 3
	defaultBackoff     = 2 * time.Second
	defaultConcurrency = 4
)

// Parser reads a filename into a guess.
type Parser interface {
	Parse(filename string) mediaparse.Guess
}

// Result is one completed match. It is never mutated after Match returns it.
type Result struct {
	Guess         mediaparse.Guess  `json:"guess"`
	CatalogID     int64             `json:"catalog_id"`
	Candidate     catalog.Candidate `json:"candidate"`
	Confidence    float64           `json:"confidence"`
	CanonicalPath string            `json:"canonical_path"`
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Option configures a Matcher.
type Option func(*Matcher)

// WithCache installs a search cache.
func WithCache(cache Cache) Option {
	return func(m *Matcher) {
		if cache != nil {
			m.cache = cache
		}
	}
}

// WithConcurrency bounds BatchMatch parallelism.
func WithConcurrency(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.concurrency = n
		}
	}
}

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		m.logger = logging.NewComponentLogger(logger, "matcher")
	}
}

// WithSleep replaces the retry backoff sleep.
func WithSleep(sleep SleepFunc) Option {
	return func(m *Matcher) {
		if sleep != nil {
			m.sleep = sleep
		}
	}
}

// Matcher runs parse, search, score and path construction.
type Matcher struct {
	parser      Parser
	client      catalog.Client
	paths       *PathBuilder
	cache       Cache
	attempts    int
	backoff     time.Duration
	concurrency int
	sleep       SleepFunc
	logger      *slog.Logger
}

// New constructs a Matcher. Without WithCache an unbounded MemoryCache is used.
func New(parser Parser, client catalog.Client, paths *PathBuilder, opts ...Option) *Matcher {
	m := &Matcher{
		parser:      parser,
		client:      client,
		paths:       paths,
		attempts:    defaultAttempts,
		backoff:     defaultBackoff,
		concurrency: defaultConcurrency,
		sleep:       sleepContext,
		logger:      logging.NewComponentLogger(nil, "matcher"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cache == nil {
		m.cache = NewMemoryCache(0)
	}
	return m
}

// Paths exposes the path builder used for results.
func (m *Matcher) Paths() *PathBuilder {
	return m.paths
}

// CanonicalPath rebuilds the library path for a previously matched file.
func (m *Matcher) CanonicalPath(ctx context.Context, guess mediaparse.Guess, candidate catalog.Candidate, filename string) string {
	return m.paths.Build(ctx, guess, candidate, filepath.Base(filename))
}

// Match resolves filename to a result. It returns nil, nil when the filename
// has no recoverable title or the catalog has no candidates, and an error
// wrapping services.ErrTransient when every search attempt failed.
func (m *Matcher) Match(ctx context.Context, filename string) (*Result, error) {
	base := filepath.Base(filename)
	guess := m.parser.Parse(base)
	if !guess.HasTitle() {
		m.logger.Debug("filename has no recoverable title", logging.String("filename", base))
		return nil, nil
	}

	query := catalog.Query{Title: guess.Title, Year: guess.Year, Kind: catalog.KindMovie}
	if guess.IsEpisode() {
		query.Kind = catalog.KindShow
	}

	candidates, err := m.search(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		m.logger.Debug("catalog returned no candidates",
			logging.String("title", guess.Title),
			logging.Int("year", guess.Year),
			logging.String("kind", string(query.Kind)),
		)
		return nil, nil
	}

	best := candidates[0]
	confidence := Score(guess, best)
	result := &Result{
		Guess:         guess,
		CatalogID:     best.ID,
		Candidate:     best,
		Confidence:    confidence,
		CanonicalPath: m.paths.Build(ctx, guess, best, base),
	}
	m.logger.Debug("match resolved",
		logging.String("filename", base),
		logging.Int64(logging.FieldCatalogID, best.ID),
		logging.Float64(logging.FieldConfidence, confidence),
		logging.String(logging.FieldDestinationPath, result.CanonicalPath),
	)
	return result, nil
}

// BatchMatch matches every filename concurrently. The returned slice is
// index-aligned with filenames; failed or unmatched slots are nil.
func (m *Matcher) BatchMatch(ctx context.Context, filenames []string) []*Result {
	results := make([]*Result, len(filenames))
	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i, name := range filenames {
		g.Go(func() error {
			result, err := m.Match(ctx, name)
			if err != nil {
				logging.WarnWithContext(m.logger, "batch match slot failed", "match_failed",
					logging.String("filename", name),
					logging.Error(err),
					logging.String(logging.FieldImpact, "file reported as unmatched"),
					logging.String(logging.FieldErrorHint, "retry once the catalog is reachable"),
				)
				return nil
			}
			results[i] = result
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (m *Matcher) search(ctx context.Context, query catalog.Query) ([]catalog.Candidate, error) {
	if cached, ok, err := m.cache.Lookup(ctx, query); err != nil {
		m.logger.Debug("search cache lookup failed", logging.Error(err))
	} else if ok {
		m.logger.Debug("search cache hit", logging.String("title", query.Title))
		return cached, nil
	}

	var lastErr error
	for attempt := 1; attempt <= m.attempts; attempt++ {
		candidates, err := m.client.Search(ctx, query)
		if err == nil {
			if len(candidates) > 0 {
				if storeErr := m.cache.Store(ctx, query, candidates); storeErr != nil {
					m.logger.Debug("search cache store failed", logging.Error(storeErr))
				}
			}
			return candidates, nil
		}
		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if attempt == m.attempts {
			break
		}
		wait := m.backoff << (attempt - 1)
		logging.WarnWithContext(m.logger, "catalog search failed; retrying", "catalog_search_retry",
			logging.String("title", query.Title),
			logging.String("kind", string(query.Kind)),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", m.attempts),
			logging.Duration("backoff", wait),
			logging.Error(err),
			logging.String(logging.FieldImpact, "match delayed"),
			logging.String(logging.FieldErrorHint, "check TMDB reachability and tmdb.api_key"),
		)
		if err := m.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, services.Wrap(services.ErrTransient, "matcher", "catalog search",
		fmt.Sprintf("failed after %d attempts for %q (%s)", m.attempts, query.Title, query.Kind), lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsTransient reports whether err came from exhausted search retries.
func IsTransient(err error) bool {
	return errors.Is(err, services.ErrTransient)
}
