package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// List returns records matching filter, newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Record, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.CatalogID > 0 {
		clauses = append(clauses, "catalog_id = ?")
		args = append(args, filter.CatalogID)
	}
	if filter.MediaKind != "" {
		clauses = append(clauses, "media_kind = ?")
		args = append(args, filter.MediaKind)
	}

	query := `SELECT ` + recordColumns + ` FROM ingest_records`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ingest records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Stats aggregates record counts by status and media kind.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{
		ByStatus: make(map[Status]int),
		ByKind:   make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM ingest_records GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("history stats: %w", err)
	}
	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return stats, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, err
	}

	kindRows, err := s.db.QueryContext(ctx, `SELECT COALESCE(media_kind, 'unknown'), COUNT(1) FROM ingest_records GROUP BY 1`)
	if err != nil {
		return stats, fmt.Errorf("history kind stats: %w", err)
	}
	defer kindRows.Close()
	for kindRows.Next() {
		var (
			kind  string
			count int
		)
		if err := kindRows.Scan(&kind, &count); err != nil {
			return stats, err
		}
		stats.ByKind[kind] = count
	}
	if err := kindRows.Err(); err != nil {
		return stats, err
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, `SELECT AVG(confidence) FROM ingest_records WHERE status = ?`, StatusSuccess).Scan(&avg); err != nil {
		return stats, fmt.Errorf("history confidence stats: %w", err)
	}
	stats.AverageConfidence = avg.Float64
	return stats, nil
}

// PendingOlderThan returns PENDING records created before cutoff, oldest
// first. These are ingests interrupted between recording and resolution.
func (s *Store) PendingOlderThan(ctx context.Context, cutoff time.Time) ([]*Record, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+recordColumns+` FROM ingest_records WHERE status = ? AND created_at < ? ORDER BY id`,
		StatusPending,
		formatTime(cutoff),
	)
	if err != nil {
		return nil, fmt.Errorf("query orphaned records: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}
