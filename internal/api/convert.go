package api

import (
	"path/filepath"
	"time"

	"videodrome/internal/history"
	"videodrome/internal/ingest"
	"videodrome/internal/matcher"
	"videodrome/internal/services"
	"videodrome/internal/watcher"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// FromWatcherStatus converts a watcher snapshot.
func FromWatcherStatus(s watcher.Status) WatcherStatus {
	return WatcherStatus{
		Running:             s.Running,
		IngestDir:           s.IngestDir,
		AutoIngest:          s.AutoIngest,
		ConfidenceThreshold: s.ConfidenceThreshold,
		StabilitySeconds:    s.StabilitySeconds,
		PendingQueueSize:    s.PendingQueueSize,
		ProcessingCount:     s.ProcessingCount,
		TrackedCount:        s.TrackedCount,
		ProcessedTorrents:   s.ProcessedTorrents,
		TorrentPolling:      s.TorrentPolling,
	}
}

// FromSettings converts the watcher decision policy.
func FromSettings(s watcher.Settings) WatcherSettings {
	return WatcherSettings{
		AutoIngest:          s.AutoIngest,
		ConfidenceThreshold: s.ConfidenceThreshold,
		StabilitySeconds:    s.StabilitySeconds,
	}
}

// ToUpdate converts a config request into a watcher update.
func (r WatcherConfigRequest) ToUpdate() watcher.Update {
	return watcher.Update{
		AutoIngest:          r.AutoIngest,
		ConfidenceThreshold: r.ConfidenceThreshold,
		StabilitySeconds:    r.StabilitySeconds,
	}
}

// IsEmpty reports whether the request changes nothing.
func (r WatcherConfigRequest) IsEmpty() bool {
	return r.AutoIngest == nil && r.ConfidenceThreshold == nil && r.StabilitySeconds == nil
}

// FromHistoryStats converts audit-log totals.
func FromHistoryStats(s history.Stats) HistoryStats {
	out := HistoryStats{
		Total:             s.Total,
		ByStatus:          make(map[string]int, len(s.ByStatus)),
		ByKind:            make(map[string]int, len(s.ByKind)),
		AverageConfidence: s.AverageConfidence,
	}
	for status, n := range s.ByStatus {
		out.ByStatus[string(status)] = n
	}
	for kind, n := range s.ByKind {
		out.ByKind[kind] = n
	}
	return out
}

// FromPendingItem converts a queued match.
func FromPendingItem(item watcher.PendingItem) PendingItem {
	return PendingItem{
		SourcePath:    item.SourcePath,
		Filename:      filepath.Base(item.SourcePath),
		Title:         item.Candidate.Name,
		Year:          item.Candidate.Year(),
		CatalogID:     item.Candidate.ID,
		Kind:          string(item.Candidate.Kind),
		Season:        item.Guess.Season,
		Episode:       item.Guess.Episode,
		Confidence:    item.Confidence,
		CanonicalPath: item.CanonicalPath,
		TorrentHash:   item.TorrentHash,
		TorrentName:   item.TorrentName,
		QueuedAt:      formatTime(item.QueuedAt),
	}
}

// FromPendingItems converts the pending queue, keeping its order.
func FromPendingItems(items []watcher.PendingItem) []PendingItem {
	out := make([]PendingItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromPendingItem(item))
	}
	return out
}

// FromMatchResult converts one batch slot. A nil result is an unmatched
// input.
func FromMatchResult(input string, result *matcher.Result) MatchResult {
	if result == nil {
		return MatchResult{Input: input}
	}
	out := MatchResult{
		Input:         input,
		Matched:       true,
		Title:         result.Candidate.Name,
		Year:          result.Candidate.Year(),
		CatalogID:     result.CatalogID,
		Kind:          string(result.Candidate.Kind),
		Confidence:    result.Confidence,
		CanonicalPath: result.CanonicalPath,
	}
	if result.Guess.IsEpisode() {
		out.Season = result.Guess.Season
		out.Episode = result.Guess.Episode
	}
	return out
}

// FromMatchResults pairs inputs with their batch slots.
func FromMatchResults(inputs []string, results []*matcher.Result) []MatchResult {
	out := make([]MatchResult, 0, len(inputs))
	for i, input := range inputs {
		var result *matcher.Result
		if i < len(results) {
			result = results[i]
		}
		out = append(out, FromMatchResult(input, result))
	}
	return out
}

// FromRecord converts an audit-log row.
func FromRecord(rec *history.Record) HistoryRecord {
	if rec == nil {
		return HistoryRecord{}
	}
	return HistoryRecord{
		ID:              rec.ID,
		SourcePath:      rec.SourcePath,
		DestinationPath: rec.DestinationPath,
		Status:          string(rec.Status),
		CatalogID:       rec.CatalogID,
		MediaKind:       rec.MediaKind,
		EpisodeKey:      rec.EpisodeKey,
		Confidence:      rec.Confidence,
		ErrorMessage:    rec.ErrorMessage,
		Metadata:        rec.Metadata,
		CreatedAt:       formatTime(rec.CreatedAt),
		UpdatedAt:       formatTime(rec.UpdatedAt),
	}
}

// FromRecords converts audit-log rows.
func FromRecords(records []*history.Record) []HistoryRecord {
	out := make([]HistoryRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, FromRecord(rec))
	}
	return out
}

// ToFilter validates a list request.
func (r HistoryListRequest) ToFilter() (history.Filter, error) {
	filter := history.Filter{
		CatalogID: r.CatalogID,
		MediaKind: r.Kind,
		Limit:     r.Limit,
	}
	if r.Status != "" {
		status, err := history.ParseStatus(r.Status)
		if err != nil {
			return history.Filter{}, services.Wrap(services.ErrValidation, "api", "history filter", "", err)
		}
		filter.Status = status
	}
	return filter, nil
}

// FromTorrentSummary converts one poll summary.
func FromTorrentSummary(s watcher.TorrentSummary) TorrentSummary {
	return TorrentSummary{
		ID:            s.ID,
		Hash:          s.Hash,
		Name:          s.Name,
		VideoFiles:    s.VideoFiles,
		Ingested:      s.Ingested,
		Queued:        s.Queued,
		Duplicate:     s.Duplicate,
		Unmatched:     s.Unmatched,
		Missing:       s.Missing,
		Errors:        s.Errors,
		MarkProcessed: s.MarkProcessed,
		Removed:       s.Removed,
		PolledAt:      formatTime(s.PolledAt),
	}
}

// FromTorrentSummaries converts the last poll cycle.
func FromTorrentSummaries(summaries []watcher.TorrentSummary) []TorrentSummary {
	out := make([]TorrentSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, FromTorrentSummary(s))
	}
	return out
}

// FromReconcileReport converts a reconciliation pass.
func FromReconcileReport(r ingest.ReconcileReport) ReconcileResponse {
	return ReconcileResponse{Examined: r.Examined, Succeeded: r.Succeeded, Failed: r.Failed}
}
