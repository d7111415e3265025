package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"videodrome/internal/config"
	"videodrome/internal/history"
	"videodrome/internal/ingest"
	"videodrome/internal/logging"
	"videodrome/internal/matcher"
	"videodrome/internal/notifications"
	"videodrome/internal/services"
	"videodrome/internal/watcher"
)

// ErrNotRunning is returned by operations that need a started daemon.
var ErrNotRunning = fmt.Errorf("%w: daemon is not running", services.ErrValidation)

// BatchMatcher resolves many filenames at once.
type BatchMatcher interface {
	BatchMatch(ctx context.Context, filenames []string) []*matcher.Result
}

// Components are the pipeline pieces the daemon coordinates.
type Components struct {
	Store    *history.Store
	Matcher  BatchMatcher
	Watcher  *watcher.Watcher
	Executor *ingest.Executor
	Notifier notifications.Service
}

// Daemon coordinates the background services and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *history.Store
	matcher  BatchMatcher
	watcher  *watcher.Watcher
	executor *ingest.Executor
	notifier notifications.Service

	lockPath  string
	lock      *flock.Flock
	sessionID string

	lifecycle sync.Mutex
	running   atomic.Bool
	cancel    context.CancelFunc
	scheduler *cron.Cron
	api       *apiServer

	stateMu   sync.RWMutex
	ctx       context.Context
	startedAt time.Time
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	SessionID    string
	StartedAt    time.Time
	DatabasePath string
	LockFilePath string
	MediaRoot    string
	Watcher      watcher.Status
	History      history.Stats
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, c Components) (*Daemon, error) {
	if cfg == nil || c.Store == nil || c.Matcher == nil || c.Watcher == nil || c.Executor == nil {
		return nil, errors.New("daemon requires config, store, matcher, watcher, and ingest executor")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := c.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "videodrome.lock")
	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     c.Store,
		matcher:   c.Matcher,
		watcher:   c.Watcher,
		executor:  c.Executor,
		notifier:  notifier,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
		sessionID: uuid.NewString(),
	}, nil
}

// Start acquires the daemon lock, reconciles interrupted ingests, schedules
// maintenance, starts the watcher when configured to, and serves the API.
func (d *Daemon) Start(ctx context.Context) error {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another videodrome daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.reconcile(runCtx)

	scheduler, err := d.newScheduler(runCtx)
	if err != nil {
		d.abortStart()
		return err
	}
	scheduler.Start()
	d.scheduler = scheduler

	if d.cfg.Watcher.AutoStart {
		if err := d.watcher.Start(runCtx); err != nil {
			logging.WarnWithContext(d.logger, "watcher auto-start failed", "watcher_autostart_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "files dropped into the ingest directory are not processed"),
				logging.String(logging.FieldErrorHint, "fix paths.ingest_dir and start the watcher from the CLI"),
			)
		}
	}

	srv, err := newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		d.abortStart()
		return err
	}
	if err := srv.start(runCtx); err != nil {
		d.abortStart()
		return err
	}
	d.api = srv

	d.stateMu.Lock()
	d.ctx = runCtx
	d.startedAt = time.Now()
	d.stateMu.Unlock()
	d.running.Store(true)
	d.logger.Info("videodrome daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("session_id", d.sessionID),
		logging.Bool("watcher_auto_start", d.cfg.Watcher.AutoStart),
	)
	return nil
}

func (d *Daemon) abortStart() {
	d.watcher.Stop()
	d.stopScheduler()
	if d.cancel != nil {
		d.cancel()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.cancel = nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	d.lifecycle.Lock()
	defer d.lifecycle.Unlock()
	if !d.running.Load() {
		return
	}

	d.stateMu.Lock()
	d.ctx = nil
	d.stateMu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.api = nil
	d.watcher.Stop()
	d.stopScheduler()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("videodrome daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Running reports whether Start succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// LockPath returns the path of the single-instance lock file.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("history stats unavailable", logging.Error(err))
	}
	d.stateMu.RLock()
	startedAt := d.startedAt
	d.stateMu.RUnlock()
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		SessionID:    d.sessionID,
		StartedAt:    startedAt,
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		MediaRoot:    d.cfg.Paths.MediaRoot,
		Watcher:      d.watcher.Status(),
		History:      stats,
	}
}

// StartWatcher starts the directory watcher under the daemon's lifetime.
func (d *Daemon) StartWatcher() error {
	d.stateMu.RLock()
	ctx := d.ctx
	d.stateMu.RUnlock()
	if ctx == nil {
		return ErrNotRunning
	}
	return d.watcher.Start(ctx)
}

// StopWatcher stops the directory watcher. The daemon keeps running.
func (d *Daemon) StopWatcher() {
	d.watcher.Stop()
}

// ConfigureWatcher applies a partial decision policy update.
func (d *Daemon) ConfigureWatcher(update watcher.Update) (watcher.Settings, error) {
	return d.watcher.Configure(update)
}

// WatcherSettings returns the current decision policy.
func (d *Daemon) WatcherSettings() watcher.Settings {
	return d.watcher.Settings()
}

// PendingQueue returns the items awaiting review.
func (d *Daemon) PendingQueue() []watcher.PendingItem {
	return d.watcher.PendingQueue()
}

// Approve ingests a queued item.
func (d *Daemon) Approve(ctx context.Context, sourcePath string) (*history.Record, error) {
	sourcePath = strings.TrimSpace(sourcePath)
	if sourcePath == "" {
		return nil, services.Wrap(services.ErrValidation, "daemon", "approve", "source path is required", nil)
	}
	return d.watcher.Approve(ctx, sourcePath)
}

// Reject drops a queued item.
func (d *Daemon) Reject(sourcePath string) error {
	sourcePath = strings.TrimSpace(sourcePath)
	if sourcePath == "" {
		return services.Wrap(services.ErrValidation, "daemon", "reject", "source path is required", nil)
	}
	return d.watcher.Reject(sourcePath)
}

// Match runs a manual batch match. Results are index-aligned with inputs.
func (d *Daemon) Match(ctx context.Context, inputs []string) ([]*matcher.Result, error) {
	names := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if trimmed := strings.TrimSpace(input); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	if len(names) == 0 {
		return nil, services.Wrap(services.ErrValidation, "daemon", "match", "at least one filename is required", nil)
	}
	return d.matcher.BatchMatch(ctx, names), nil
}

// History lists audit-log rows.
func (d *Daemon) History(ctx context.Context, filter history.Filter) ([]*history.Record, error) {
	return d.store.List(ctx, filter)
}

// HistoryStats summarizes the audit log.
func (d *Daemon) HistoryStats(ctx context.Context) (history.Stats, error) {
	return d.store.Stats(ctx)
}

// Torrents returns the per-torrent results of the last poll cycle.
func (d *Daemon) Torrents() []watcher.TorrentSummary {
	return d.watcher.TorrentSummaries()
}

// TestNotification sends a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}
