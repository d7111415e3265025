package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// WatcherStatus describes the directory watcher and torrent poller.
type WatcherStatus struct {
	Running             bool    `json:"running"`
	IngestDir           string  `json:"ingest_dir"`
	AutoIngest          bool    `json:"auto_ingest"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	StabilitySeconds    int     `json:"stability_seconds"`
	PendingQueueSize    int     `json:"pending_queue_size"`
	ProcessingCount     int     `json:"processing_count"`
	TrackedCount        int     `json:"tracked_count"`
	ProcessedTorrents   int     `json:"processed_torrents"`
	TorrentPolling      bool    `json:"torrent_polling"`
}

// HistoryStats summarizes the audit log.
type HistoryStats struct {
	Total             int            `json:"total"`
	ByStatus          map[string]int `json:"by_status"`
	ByKind            map[string]int `json:"by_kind"`
	AverageConfidence float64        `json:"average_confidence"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool          `json:"running"`
	PID          int           `json:"pid"`
	SessionID    string        `json:"session_id,omitempty"`
	StartedAt    string        `json:"started_at,omitempty"`
	DatabasePath string        `json:"database_path"`
	LockFilePath string        `json:"lock_file_path"`
	MediaRoot    string        `json:"media_root"`
	Watcher      WatcherStatus `json:"watcher"`
	History      HistoryStats  `json:"history"`
}

// WatcherSettings is the runtime-tunable decision policy.
type WatcherSettings struct {
	AutoIngest          bool    `json:"auto_ingest"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	StabilitySeconds    int     `json:"stability_seconds"`
}

// WatcherConfigRequest is a partial settings update; omitted fields are kept.
type WatcherConfigRequest struct {
	AutoIngest          *bool    `json:"auto_ingest,omitempty"`
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
	StabilitySeconds    *int     `json:"stability_seconds,omitempty"`
}

// PendingItem describes a queued match in a transport-friendly format.
type PendingItem struct {
	SourcePath    string  `json:"source_path"`
	Filename      string  `json:"filename"`
	Title         string  `json:"title"`
	Year          int     `json:"year,omitempty"`
	CatalogID     int64   `json:"catalog_id"`
	Kind          string  `json:"kind"`
	Season        int     `json:"season,omitempty"`
	Episode       int     `json:"episode,omitempty"`
	Confidence    float64 `json:"confidence"`
	CanonicalPath string  `json:"canonical_path,omitempty"`
	TorrentHash   string  `json:"torrent_hash,omitempty"`
	TorrentName   string  `json:"torrent_name,omitempty"`
	QueuedAt      string  `json:"queued_at,omitempty"`
}

// PendingListResponse wraps the pending queue.
type PendingListResponse struct {
	Items []PendingItem `json:"items"`
}

// PendingActionRequest names the queued item to approve or reject.
type PendingActionRequest struct {
	SourcePath string `json:"source_path"`
}

// PendingActionResponse reports the result of approve or reject. Record is
// set when an approve reached the audit log.
type PendingActionResponse struct {
	SourcePath string         `json:"source_path"`
	Action     string         `json:"action"`
	Record     *HistoryRecord `json:"record,omitempty"`
}

// MatchRequest lists filenames or paths to match.
type MatchRequest struct {
	Paths []string `json:"paths"`
}

// MatchResult is one slot of a batch match.
type MatchResult struct {
	Input         string  `json:"input"`
	Matched       bool    `json:"matched"`
	Title         string  `json:"title,omitempty"`
	Year          int     `json:"year,omitempty"`
	CatalogID     int64   `json:"catalog_id,omitempty"`
	Kind          string  `json:"kind,omitempty"`
	Season        int     `json:"season,omitempty"`
	Episode       int     `json:"episode,omitempty"`
	Confidence    float64 `json:"confidence,omitempty"`
	CanonicalPath string  `json:"canonical_path,omitempty"`
}

// MatchResponse preserves input order.
type MatchResponse struct {
	Results []MatchResult `json:"results"`
}

// HistoryRecord is one audit-log row.
type HistoryRecord struct {
	ID              int64          `json:"id"`
	SourcePath      string         `json:"source_path"`
	DestinationPath string         `json:"destination_path,omitempty"`
	Status          string         `json:"status"`
	CatalogID       int64          `json:"catalog_id,omitempty"`
	MediaKind       string         `json:"media_kind,omitempty"`
	EpisodeKey      string         `json:"episode_key,omitempty"`
	Confidence      float64        `json:"confidence"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       string         `json:"created_at,omitempty"`
	UpdatedAt       string         `json:"updated_at,omitempty"`
}

// HistoryListRequest filters the audit log. Zero values are ignored.
type HistoryListRequest struct {
	Status    string `json:"status,omitempty"`
	CatalogID int64  `json:"catalog_id,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// HistoryListResponse wraps audit-log rows, newest first.
type HistoryListResponse struct {
	Records []HistoryRecord `json:"records"`
}

// TorrentSummary reports one torrent from the last poll cycle.
type TorrentSummary struct {
	ID            int64  `json:"id"`
	Hash          string `json:"hash"`
	Name          string `json:"name"`
	VideoFiles    int    `json:"video_files"`
	Ingested      int    `json:"ingested"`
	Queued        int    `json:"queued"`
	Duplicate     int    `json:"duplicate"`
	Unmatched     int    `json:"unmatched"`
	Missing       int    `json:"missing"`
	Errors        int    `json:"errors"`
	MarkProcessed bool   `json:"mark_processed"`
	Removed       bool   `json:"removed"`
	PolledAt      string `json:"polled_at,omitempty"`
}

// TorrentListResponse wraps the last poll summaries.
type TorrentListResponse struct {
	Torrents []TorrentSummary `json:"torrents"`
}

// ReconcileResponse reports an orphan reconciliation pass.
type ReconcileResponse struct {
	Examined  int `json:"examined"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// ErrorResponse is the body of every non-2xx HTTP response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
