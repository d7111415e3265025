package ipc

import "videodrome/internal/api"

// ServiceName is the JSON-RPC receiver name.
const ServiceName = "Videodrome"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon and watcher status information.
type StatusResponse = api.DaemonStatus

// WatcherStartRequest starts the directory watcher.
type WatcherStartRequest struct{}

// WatcherStopRequest stops the directory watcher.
type WatcherStopRequest struct{}

// WatcherResponse reports the watcher state after a start or stop.
type WatcherResponse struct {
	OK      bool              `json:"ok"`
	Message string            `json:"message"`
	Status  api.WatcherStatus `json:"status"`
}

// WatcherConfigureRequest is a partial policy update.
type WatcherConfigureRequest = api.WatcherConfigRequest

// WatcherConfigureResponse carries the resulting policy.
type WatcherConfigureResponse = api.WatcherSettings

// PendingListRequest fetches the pending queue.
type PendingListRequest struct{}

// PendingListResponse contains the pending queue.
type PendingListResponse = api.PendingListResponse

// PendingActionRequest names a queued item.
type PendingActionRequest = api.PendingActionRequest

// PendingActionResponse reports approve or reject results.
type PendingActionResponse = api.PendingActionResponse

// MatchRequest lists filenames to match.
type MatchRequest = api.MatchRequest

// MatchResponse holds one result per non-blank input.
type MatchResponse = api.MatchResponse

// HistoryListRequest filters the audit log.
type HistoryListRequest = api.HistoryListRequest

// HistoryListResponse contains audit rows.
type HistoryListResponse = api.HistoryListResponse

// HistoryStatsRequest fetches audit totals.
type HistoryStatsRequest struct{}

// HistoryStatsResponse contains audit totals.
type HistoryStatsResponse = api.HistoryStats

// TorrentsRequest fetches the last poll summaries.
type TorrentsRequest struct{}

// TorrentsResponse contains the last poll summaries.
type TorrentsResponse = api.TorrentListResponse

// ReconcileRequest runs an orphan reconciliation pass now.
type ReconcileRequest struct{}

// ReconcileResponse reports the pass.
type ReconcileResponse = api.ReconcileResponse

// TestNotificationRequest triggers a test notification.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test results.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
