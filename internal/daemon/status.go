package daemon

import (
	"time"

	"videodrome/internal/api"
	"videodrome/internal/watcher"
)

// WatcherStatus returns the watcher snapshot without touching the audit log.
func (d *Daemon) WatcherStatus() watcher.Status {
	return d.watcher.Status()
}

// ToDaemonStatus converts a status snapshot into its transport form.
func ToDaemonStatus(status Status) api.DaemonStatus {
	out := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		SessionID:    status.SessionID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		MediaRoot:    status.MediaRoot,
		Watcher:      api.FromWatcherStatus(status.Watcher),
		History:      api.FromHistoryStats(status.History),
	}
	if !status.StartedAt.IsZero() {
		out.StartedAt = status.StartedAt.UTC().Format(time.RFC3339)
	}
	return out
}
