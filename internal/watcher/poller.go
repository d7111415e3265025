package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"videodrome/internal/logging"
	"videodrome/internal/notifications"
	"videodrome/internal/services"
	"videodrome/internal/torrent"
)

// TorrentSummary records what one poll cycle did with one torrent.
type TorrentSummary struct {
	ID            int64     `json:"id"`
	Hash          string    `json:"hash"`
	Name          string    `json:"name"`
	VideoFiles    int       `json:"video_files"`
	Ingested      int       `json:"ingested"`
	Queued        int       `json:"queued"`
	Duplicate     int       `json:"duplicate"`
	Unmatched     int       `json:"unmatched"`
	Missing       int       `json:"missing"`
	Errors        int       `json:"errors"`
	MarkProcessed bool      `json:"mark_processed"`
	Removed       bool      `json:"removed"`
	PolledAt      time.Time `json:"polled_at"`
}

// Terminal is the number of files that reached a non-retryable outcome.
func (s TorrentSummary) Terminal() int {
	return s.Ingested + s.Queued + s.Duplicate + s.Unmatched
}

func (s TorrentSummary) shouldMark() bool {
	return s.VideoFiles == 0 || (s.Terminal() == s.VideoFiles && s.Missing == 0 && s.Errors == 0)
}

func (s TorrentSummary) shouldRemove() bool {
	return s.Ingested > 0 && s.Queued == 0 && s.Missing == 0 && s.Errors == 0
}

// TorrentPoller feeds completed torrents through the decision policy.
type TorrentPoller struct {
	client     torrent.Client
	watcher    *Watcher
	autoRemove bool
	interval   time.Duration
	logger     *slog.Logger

	mu        sync.Mutex
	processed map[string]struct{}
	last      []TorrentSummary
}

func newTorrentPoller(client torrent.Client, w *Watcher, autoRemove bool, interval time.Duration, logger *slog.Logger) *TorrentPoller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &TorrentPoller{
		client:     client,
		watcher:    w,
		autoRemove: autoRemove,
		interval:   interval,
		logger:     logging.NewComponentLogger(logger, "torrent-poller"),
		processed:  make(map[string]struct{}),
	}
}

func (p *TorrentPoller) run(ctx context.Context) {
	p.logger.Info("torrent polling started", logging.Duration("interval", p.interval))
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("torrent polling stopped")
			return
		case <-ticker.C:
			p.pollSafely(ctx)
		}
	}
}

func (p *TorrentPoller) pollSafely(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(p.logger, "torrent poll panicked", "torrent_poll_panic",
				logging.String("panic", fmt.Sprint(r)),
				logging.String(logging.FieldErrorHint, "the next cycle retries unprocessed torrents"),
			)
		}
	}()
	p.Poll(ctx)
}

// Poll runs one cycle and returns the summaries of the torrents it handled.
func (p *TorrentPoller) Poll(ctx context.Context) []TorrentSummary {
	torrents, err := p.client.ListCompleted(ctx)
	if err != nil {
		logging.WarnWithContext(p.logger, "listing completed torrents failed", "torrent_list_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "completed downloads wait for the next poll"),
			logging.String(logging.FieldErrorHint, "check transmission.url and credentials"),
		)
		return nil
	}

	summaries := make([]TorrentSummary, 0, len(torrents))
	for _, t := range torrents {
		if ctx.Err() != nil {
			break
		}
		if p.isProcessed(t.Hash) {
			continue
		}
		summaries = append(summaries, p.processTorrent(ctx, t))
	}

	p.mu.Lock()
	p.last = summaries
	p.mu.Unlock()
	return summaries
}

func (p *TorrentPoller) processTorrent(ctx context.Context, t torrent.Torrent) TorrentSummary {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, p.logger).With(
		logging.String(logging.FieldTorrentHash, t.Hash),
		logging.String("torrent_name", t.Name),
	)
	logger.Info("processing completed torrent",
		logging.String(logging.FieldEventType, "torrent_processing"),
		logging.Int("files", len(t.Files)),
	)

	summary := TorrentSummary{ID: t.ID, Hash: t.Hash, Name: t.Name, PolledAt: p.watcher.now()}
	from := origin{torrentHash: t.Hash, torrentName: t.Name}
	for _, f := range t.Files {
		path := t.FilePath(f)
		if !p.watcher.isVideoPath(path) {
			continue
		}
		summary.VideoFiles++
		if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
			logger.Info("torrent file not on disk yet",
				logging.String(logging.FieldEventType, "torrent_file_missing"),
				logging.String(logging.FieldSourcePath, path),
			)
			summary.Missing++
			continue
		}
		decision, err := p.processFile(services.WithSourcePath(ctx, path), path, from)
		if err != nil {
			logging.WarnWithContext(logger, "torrent file failed", "torrent_file_failed",
				logging.String(logging.FieldSourcePath, path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "torrent stays unprocessed and is retried next poll"),
				logging.String(logging.FieldErrorHint, "check the audit log for the failure reason"),
			)
			summary.Errors++
			continue
		}
		switch decision {
		case DecisionIngested:
			summary.Ingested++
		case DecisionQueued:
			summary.Queued++
		case DecisionDuplicate:
			summary.Duplicate++
		case DecisionUnmatched:
			summary.Unmatched++
		}
	}

	summary.MarkProcessed = summary.shouldMark()
	if summary.MarkProcessed {
		p.markProcessed(t.Hash)
	} else {
		logger.Info("deferring torrent completion mark",
			logging.String(logging.FieldEventType, "torrent_deferred"),
			logging.Int("missing", summary.Missing),
			logging.Int("errors", summary.Errors),
		)
	}

	if p.autoRemove && summary.shouldRemove() {
		if err := p.client.Remove(ctx, t.ID); err != nil {
			logging.WarnWithContext(logger, "torrent auto-remove failed", "torrent_remove_failed",
				logging.Int64("torrent_id", t.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "torrent stays in the client"),
				logging.String(logging.FieldErrorHint, "remove it from Transmission manually"),
			)
		} else {
			summary.Removed = true
		}
	}

	logger.Info("torrent processed",
		logging.String(logging.FieldEventType, "torrent_processed"),
		logging.Int("video_files", summary.VideoFiles),
		logging.Int("ingested", summary.Ingested),
		logging.Int("queued", summary.Queued),
		logging.Int("duplicate", summary.Duplicate),
		logging.Int("unmatched", summary.Unmatched),
		logging.Int("missing", summary.Missing),
		logging.Int("errors", summary.Errors),
		logging.Bool("mark_processed", summary.MarkProcessed),
		logging.Bool("removed", summary.Removed),
	)
	if summary.MarkProcessed && summary.VideoFiles > 0 {
		if err := p.watcher.notifier.Publish(ctx, notifications.EventTorrentProcessed, notifications.Payload{
			"name":      t.Name,
			"ingested":  summary.Ingested,
			"queued":    summary.Queued,
			"duplicate": summary.Duplicate,
			"unmatched": summary.Unmatched,
		}); err != nil {
			logger.Debug("torrent notification failed", logging.Error(err))
		}
	}
	return summary
}

// processFile runs one file through the policy. A panic counts as an error.
func (p *TorrentPoller) processFile(ctx context.Context, path string, from origin) (decision Decision, err error) {
	defer func() {
		if r := recover(); r != nil {
			decision = ""
			err = fmt.Errorf("panic while processing %s: %v", path, r)
		}
	}()
	p.watcher.processing.Add(1)
	defer p.watcher.processing.Add(-1)
	return p.watcher.decide(ctx, path, from)
}

func (p *TorrentPoller) isProcessed(hash string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.processed[hash]
	return ok
}

func (p *TorrentPoller) markProcessed(hash string) {
	p.mu.Lock()
	p.processed[hash] = struct{}{}
	p.mu.Unlock()
}

// ProcessedCount returns the number of torrents marked processed.
func (p *TorrentPoller) ProcessedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.processed)
}

// LastSummaries returns the summaries from the most recent cycle.
func (p *TorrentPoller) LastSummaries() []TorrentSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]TorrentSummary, len(p.last))
	copy(out, p.last)
	return out
}
