package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const recordColumns = "id, source_path, destination_path, status, catalog_id, media_kind, episode_key, confidence, error_message, metadata_json, created_at, updated_at"

// AddRecord inserts a PENDING record before any file is touched.
func (s *Store) AddRecord(ctx context.Context, rec NewRecord) (*Record, error) {
	if strings.TrimSpace(rec.SourcePath) == "" {
		return nil, errors.New("source path is required")
	}
	metadataJSON, err := encodeMetadata(rec.Metadata)
	if err != nil {
		return nil, err
	}
	timestamp := s.timestamp()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO ingest_records (
            source_path, destination_path, status, catalog_id, media_kind, episode_key,
            confidence, metadata_json, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SourcePath,
		rec.DestinationPath,
		StatusPending,
		nullableInt(rec.CatalogID),
		nullableString(rec.MediaKind),
		rec.EpisodeKey,
		rec.Confidence,
		metadataJSON,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert ingest record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// UpdateRecord resolves a PENDING record to a terminal status. Repeating the
// transition a record already made is a no-op; any other move returns
// ErrInvalidTransition.
func (s *Store) UpdateRecord(ctx context.Context, id int64, outcome Outcome) (*Record, error) {
	if !outcome.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: target %q is not terminal", ErrInvalidTransition, outcome.Status)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE ingest_records
         SET status = ?,
             destination_path = COALESCE(?, destination_path),
             error_message = ?,
             updated_at = ?
         WHERE id = ? AND status = ?`,
		outcome.Status,
		nullableString(outcome.DestinationPath),
		nullableString(outcome.ErrorMessage),
		s.timestamp(),
		id,
		StatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("update ingest record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}

	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: id %d", ErrRecordNotFound, id)
	}
	if affected == 0 && current.Status != outcome.Status {
		return current, fmt.Errorf("%w: %s -> %s for record %d", ErrInvalidTransition, current.Status, outcome.Status, id)
	}
	return current, nil
}

// GetByID fetches a record, returning nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+recordColumns+` FROM ingest_records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ingest record: %w", err)
	}
	return rec, nil
}

// FindBySource returns every record for sourcePath, newest first.
func (s *Store) FindBySource(ctx context.Context, sourcePath string) ([]*Record, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+recordColumns+` FROM ingest_records WHERE source_path = ? ORDER BY id DESC`, sourcePath)
	if err != nil {
		return nil, fmt.Errorf("find by source: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// IsDuplicate reports whether a non-failed record already covers the same
// catalog entry (and episode, for shows) or the same source file.
func (s *Store) IsDuplicate(ctx context.Context, query DuplicateQuery) (bool, error) {
	clauses := make([]string, 0, 2)
	args := []any{StatusFailed}
	if query.CatalogID > 0 {
		clauses = append(clauses, "(catalog_id = ? AND COALESCE(media_kind, '') = ? AND episode_key = ?)")
		args = append(args, query.CatalogID, query.MediaKind, query.EpisodeKey)
	}
	if query.SourcePath != "" {
		clauses = append(clauses, "source_path = ?")
		args = append(args, query.SourcePath)
	}
	if len(clauses) == 0 {
		return false, nil
	}
	var count int
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT COUNT(1) FROM ingest_records WHERE status != ? AND (`+strings.Join(clauses, " OR ")+`)`,
		args...,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("duplicate check: %w", err)
	}
	return count > 0, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		rec          Record
		statusStr    string
		catalogID    sql.NullInt64
		mediaKind    sql.NullString
		errorMessage sql.NullString
		metadataRaw  sql.NullString
		createdRaw   string
		updatedRaw   string
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.SourcePath,
		&rec.DestinationPath,
		&statusStr,
		&catalogID,
		&mediaKind,
		&rec.EpisodeKey,
		&rec.Confidence,
		&errorMessage,
		&metadataRaw,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	rec.Status = Status(statusStr)
	rec.CatalogID = catalogID.Int64
	rec.MediaKind = mediaKind.String
	rec.ErrorMessage = errorMessage.String
	if metadataRaw.Valid && metadataRaw.String != "" {
		if err := json.Unmarshal([]byte(metadataRaw.String), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for record %d: %w", rec.ID, err)
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		rec.UpdatedAt = updated
	}
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func encodeMetadata(metadata map[string]any) (any, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}
