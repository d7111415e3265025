package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"videodrome/internal/catalog"
	"videodrome/internal/config"
	"videodrome/internal/history"
	"videodrome/internal/ingest"
	"videodrome/internal/logging"
	"videodrome/internal/matcher"
	"videodrome/internal/mediaparse"
	"videodrome/internal/notifications"
	"videodrome/internal/services"
	"videodrome/internal/torrent"
)

const eventBuffer = 256

// Matcher resolves filenames and rebuilds canonical paths.
type Matcher interface {
	Match(ctx context.Context, filename string) (*matcher.Result, error)
	CanonicalPath(ctx context.Context, guess mediaparse.Guess, candidate catalog.Candidate, filename string) string
}

// DuplicateChecker consults the audit log.
type DuplicateChecker interface {
	IsDuplicate(ctx context.Context, query history.DuplicateQuery) (bool, error)
}

// Ingester files a matched file into the library.
type Ingester interface {
	Ingest(ctx context.Context, req ingest.Request) (*history.Record, error)
}

// Dependencies wires a Watcher to the rest of the pipeline. Torrents may be
// nil, which disables completion polling.
type Dependencies struct {
	Matcher  Matcher
	History  DuplicateChecker
	Ingester Ingester
	Notifier notifications.Service
	Torrents torrent.Client
	Logger   *slog.Logger
}

// Settings are the runtime-tunable decision parameters.
type Settings struct {
	AutoIngest          bool    `json:"auto_ingest"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	StabilitySeconds    int     `json:"stability_seconds"`
}

// Update is a partial Settings change. Nil fields are left alone.
type Update struct {
	AutoIngest          *bool    `json:"auto_ingest,omitempty"`
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"`
	StabilitySeconds    *int     `json:"stability_seconds,omitempty"`
}

// Status is a point-in-time view of the watcher.
type Status struct {
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

// Option customizes a Watcher.
type Option func(*Watcher)

// WithClock replaces the clock used for stability and queue timestamps.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) {
		if now != nil {
			w.now = now
		}
	}
}

// WithCheckInterval overrides watcher.check_interval_seconds.
func WithCheckInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.checkInterval = d
		}
	}
}

// WithPollInterval overrides transmission.poll_interval.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollInterval = d
		}
	}
}

type fileEvent struct {
	path string
	gone bool
}

// Watcher observes the ingest directory and applies the decision policy.
type Watcher struct {
	ingestDir     string
	isVideo       func(ext string) bool
	checkInterval time.Duration
	pollInterval  time.Duration
	now           func() time.Time

	matcher  Matcher
	history  DuplicateChecker
	ingester Ingester
	notifier notifications.Service
	logger   *slog.Logger

	settingsMu sync.RWMutex
	settings   Settings

	detector *StabilityDetector
	queue    *PendingQueue
	poller   *TorrentPoller

	// cancel is non-nil from Start until Stop reaps the goroutines; running
	// also goes false as soon as the run context ends.
	mu      sync.Mutex
	running atomic.Bool
	cancel  context.CancelFunc
	fsw     *fsnotify.Watcher
	wg      sync.WaitGroup

	tracked    atomic.Int64
	processing atomic.Int64
}

// New builds a Watcher from cfg. It does not start any goroutines.
func New(cfg *config.Config, deps Dependencies, opts ...Option) *Watcher {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	w := &Watcher{
		ingestDir:     cfg.Paths.IngestDir,
		isVideo:       cfg.IsVideoExtension,
		checkInterval: cfg.CheckInterval(),
		pollInterval:  cfg.PollInterval(),
		now:           time.Now,
		matcher:       deps.Matcher,
		history:       deps.History,
		ingester:      deps.Ingester,
		notifier:      notifier,
		logger:        logging.NewComponentLogger(logger, "watcher"),
		settings: Settings{
			AutoIngest:          cfg.Watcher.AutoIngest,
			ConfidenceThreshold: cfg.Watcher.ConfidenceThreshold,
			StabilitySeconds:    cfg.Watcher.StabilitySeconds,
		},
		queue: NewPendingQueue(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.checkInterval <= 0 {
		w.checkInterval = 10 * time.Second
	}
	w.detector = NewStabilityDetector(w.stabilityWindow, func() time.Time { return w.now() })
	if deps.Torrents != nil {
		w.poller = newTorrentPoller(deps.Torrents, w, cfg.Transmission.AutoRemove, w.pollInterval, logger)
	}
	return w
}

func (w *Watcher) stabilityWindow() time.Duration {
	w.settingsMu.RLock()
	defer w.settingsMu.RUnlock()
	return time.Duration(w.settings.StabilitySeconds) * time.Second
}

// Settings returns the current decision parameters.
func (w *Watcher) Settings() Settings {
	w.settingsMu.RLock()
	defer w.settingsMu.RUnlock()
	return w.settings
}

// Start begins watching. Starting a running watcher logs a warning and
// returns nil. The watcher stops when ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		if w.running.Load() {
			logging.WarnWithContext(w.logger, "watcher already running", "watcher_already_running",
				logging.String(logging.FieldImpact, "start request ignored"),
				logging.String(logging.FieldErrorHint, "stop the watcher before starting it again"),
			)
			return nil
		}
		// The previous run context was cancelled without Stop.
		w.shutdownLocked()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "watcher", "start", "create fsnotify watcher", err)
	}
	if err := fsw.Add(w.ingestDir); err != nil {
		_ = fsw.Close()
		return services.Wrap(services.ErrConfiguration, "watcher", "start", fmt.Sprintf("watch %s", w.ingestDir), err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	events := make(chan fileEvent, eventBuffer)
	w.fsw = fsw
	w.cancel = cancel
	w.running.Store(true)

	w.wg.Add(3)
	go func() {
		defer w.wg.Done()
		<-runCtx.Done()
		w.running.Store(false)
	}()
	go w.observe(runCtx, fsw, events)
	go w.consume(runCtx, events)
	if w.poller != nil {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.poller.run(runCtx)
		}()
	}

	w.logger.Info("watcher started",
		logging.String(logging.FieldEventType, "watcher_started"),
		logging.String("ingest_dir", w.ingestDir),
		logging.Duration("check_interval", w.checkInterval),
		logging.Bool("torrent_polling", w.poller != nil),
	)
	return nil
}

// Stop halts all watcher goroutines and waits for them. Stopping a stopped
// watcher is a no-op.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel == nil {
		return
	}
	w.shutdownLocked()
	w.logger.Info("watcher stopped", logging.String(logging.FieldEventType, "watcher_stopped"))
}

func (w *Watcher) shutdownLocked() {
	w.cancel()
	_ = w.fsw.Close()
	w.wg.Wait()
	w.fsw = nil
	w.cancel = nil
	w.running.Store(false)
	w.tracked.Store(0)
}

// Status reports the current state.
func (w *Watcher) Status() Status {
	settings := w.Settings()
	status := Status{
		Running:             w.running.Load(),
		IngestDir:           w.ingestDir,
		AutoIngest:          settings.AutoIngest,
		ConfidenceThreshold: settings.ConfidenceThreshold,
		StabilitySeconds:    settings.StabilitySeconds,
		PendingQueueSize:    w.queue.Len(),
		ProcessingCount:     int(w.processing.Load()),
		TrackedCount:        int(w.tracked.Load()),
	}
	if w.poller != nil {
		status.ProcessedTorrents = w.poller.ProcessedCount()
		status.TorrentPolling = status.Running
	}
	return status
}

// Configure applies the non-nil fields of u and returns the resulting
// settings. Invalid values reject the whole update.
func (w *Watcher) Configure(u Update) (Settings, error) {
	if u.ConfidenceThreshold != nil {
		if v := *u.ConfidenceThreshold; v < 0 || v > 1 {
			return w.Settings(), services.Wrap(services.ErrValidation, "watcher", "configure",
				fmt.Sprintf("confidence_threshold %.3f outside [0, 1]", v), nil)
		}
	}
	if u.StabilitySeconds != nil && *u.StabilitySeconds <= 0 {
		return w.Settings(), services.Wrap(services.ErrValidation, "watcher", "configure",
			fmt.Sprintf("stability_seconds must be positive, got %d", *u.StabilitySeconds), nil)
	}

	w.settingsMu.Lock()
	if u.AutoIngest != nil {
		w.settings.AutoIngest = *u.AutoIngest
	}
	if u.ConfidenceThreshold != nil {
		w.settings.ConfidenceThreshold = *u.ConfidenceThreshold
	}
	if u.StabilitySeconds != nil {
		w.settings.StabilitySeconds = *u.StabilitySeconds
	}
	updated := w.settings
	w.settingsMu.Unlock()

	w.logger.Info("watcher reconfigured",
		logging.String(logging.FieldEventType, "watcher_configured"),
		logging.Bool("auto_ingest", updated.AutoIngest),
		logging.Float64("confidence_threshold", updated.ConfidenceThreshold),
		logging.Int("stability_seconds", updated.StabilitySeconds),
	)
	return updated, nil
}

// PendingQueue returns the queued items ordered by queue time.
func (w *Watcher) PendingQueue() []PendingItem {
	return w.queue.Snapshot()
}

// Approve ingests a queued item and removes it from the queue. The item is
// put back when the ingest fails so the operator can retry or reject it.
func (w *Watcher) Approve(ctx context.Context, sourcePath string) (*history.Record, error) {
	item, err := w.queue.Take(sourcePath)
	if err != nil {
		return nil, err
	}
	canonical := item.CanonicalPath
	if canonical == "" {
		canonical = w.matcher.CanonicalPath(ctx, item.Guess, item.Candidate, item.SourcePath)
	}
	ctx = services.WithSourcePath(ctx, item.SourcePath)
	logger := logging.WithContext(ctx, w.logger)
	attrs := append(logging.DecisionAttrs("pending_review", "approve", "operator approved"),
		logging.String(logging.FieldEventType, "pending_approved"),
		logging.Int64(logging.FieldCatalogID, item.Candidate.ID),
		logging.Float64(logging.FieldConfidence, item.Confidence),
	)
	logger.Info("pending item approved", logging.Args(attrs...)...)

	rec, err := w.ingester.Ingest(ctx, ingest.Request{
		SourcePath:    item.SourcePath,
		CanonicalPath: canonical,
		Guess:         item.Guess,
		Candidate:     item.Candidate,
		Confidence:    item.Confidence,
		Trigger:       ingest.TriggerApprove,
		TorrentHash:   item.TorrentHash,
		TorrentName:   item.TorrentName,
	})
	if err != nil {
		item.CanonicalPath = canonical
		w.queue.Restore(item)
		return rec, err
	}
	return rec, nil
}

// Reject drops a queued item.
func (w *Watcher) Reject(sourcePath string) error {
	if err := w.queue.Remove(sourcePath); err != nil {
		return err
	}
	attrs := append(logging.DecisionAttrs("pending_review", "reject", "operator rejected"),
		logging.String(logging.FieldEventType, "pending_rejected"),
		logging.String(logging.FieldSourcePath, sourcePath),
	)
	w.logger.Info("pending item rejected", logging.Args(attrs...)...)
	return nil
}

// TorrentSummaries returns the per-torrent results of the last poll cycle.
func (w *Watcher) TorrentSummaries() []TorrentSummary {
	if w.poller == nil {
		return nil
	}
	return w.poller.LastSummaries()
}

func (w *Watcher) isVideoPath(path string) bool {
	return w.isVideo(filepath.Ext(path))
}
