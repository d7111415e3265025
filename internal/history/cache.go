package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"videodrome/internal/catalog"
	"videodrome/internal/textutil"
)

// Lookup returns cached search results for query when present and unexpired.
func (s *Store) Lookup(ctx context.Context, query catalog.Query) ([]catalog.Candidate, bool, error) {
	title, year := cacheKey(query)
	var (
		payload  string
		storedAt string
	)
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT results_json, stored_at FROM search_cache WHERE query_title = ? AND query_year = ? AND kind = ?`,
		title, year, string(query.Kind),
	).Scan(&payload, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("search cache lookup: %w", err)
	}
	if s.cacheTTL > 0 {
		stored, parseErr := parseTimeString(storedAt)
		if parseErr != nil || s.now().Sub(stored) > s.cacheTTL {
			return nil, false, nil
		}
	}
	var candidates []catalog.Candidate
	if err := json.Unmarshal([]byte(payload), &candidates); err != nil {
		return nil, false, fmt.Errorf("decode cached results: %w", err)
	}
	return candidates, len(candidates) > 0, nil
}

// Store upserts search results for query. Empty lists are not cached.
func (s *Store) Store(ctx context.Context, query catalog.Query, candidates []catalog.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}
	payload, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("encode search results: %w", err)
	}
	title, year := cacheKey(query)
	_, err = s.execWithRetry(ctx,
		`INSERT INTO search_cache (query_title, query_year, kind, results_json, stored_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (query_title, query_year, kind)
         DO UPDATE SET results_json = excluded.results_json, stored_at = excluded.stored_at`,
		title, year, string(query.Kind), string(payload), s.timestamp(),
	)
	if err != nil {
		return fmt.Errorf("search cache store: %w", err)
	}
	return nil
}

// PurgeSearchCache deletes rows older than the configured expiry and returns
// how many were removed. A zero expiry keeps everything.
func (s *Store) PurgeSearchCache(ctx context.Context) (int64, error) {
	if s.cacheTTL <= 0 {
		return 0, nil
	}
	cutoff := formatTime(s.now().Add(-s.cacheTTL))
	res, err := s.execWithRetry(ctx, `DELETE FROM search_cache WHERE stored_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge search cache: %w", err)
	}
	return res.RowsAffected()
}

func cacheKey(query catalog.Query) (string, int) {
	year := query.Year
	if year < 0 {
		year = 0
	}
	return textutil.NormalizeTitle(query.Title), year
}
