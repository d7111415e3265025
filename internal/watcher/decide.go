package watcher

import (
	"context"
	"fmt"

	"videodrome/internal/ingest"
	"videodrome/internal/logging"
	"videodrome/internal/matcher"
	"videodrome/internal/notifications"
)

// Decision is the terminal outcome of running a file through the policy.
type Decision string

const (
	DecisionIngested  Decision = "ingested"
	DecisionQueued    Decision = "queued"
	DecisionDuplicate Decision = "duplicate"
	DecisionUnmatched Decision = "unmatched"
)

// origin carries torrent provenance for files that came from the poller.
type origin struct {
	torrentHash string
	torrentName string
}

func (o origin) trigger() ingest.Trigger {
	if o.torrentHash != "" {
		return ingest.TriggerTorrent
	}
	return ingest.TriggerAuto
}

// decide matches path and applies the policy: duplicates are skipped,
// confident matches are ingested when auto-ingest is on, everything else is
// queued for review. Exhausted catalog retries count as no match; other
// errors are match or ingest failures.
func (w *Watcher) decide(ctx context.Context, path string, from origin) (Decision, error) {
	logger := logging.WithContext(ctx, w.logger)
	if from.torrentHash != "" {
		logger = logger.With(logging.String(logging.FieldTorrentHash, from.torrentHash))
	}

	result, err := w.matcher.Match(ctx, path)
	if err != nil {
		if !matcher.IsTransient(err) {
			return "", err
		}
		logging.WarnWithContext(logger, "catalog unavailable; treating file as unmatched", "file_unmatched",
			append(logging.DecisionAttrs("auto_ingest", "skip", "catalog search failed after retries"),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file is neither ingested nor queued"),
				logging.String(logging.FieldErrorHint, "check TMDB reachability; drop the file in again to retry"),
			)...,
		)
		return DecisionUnmatched, nil
	}
	if result == nil {
		logger.Info("no catalog match",
			logging.Args(append(logging.DecisionAttrs("auto_ingest", "skip", "no catalog match"),
				logging.String(logging.FieldEventType, "file_unmatched"))...)...)
		return DecisionUnmatched, nil
	}

	dup, err := w.history.IsDuplicate(ctx, ingest.DuplicateQuery(path, result.Guess, result.Candidate))
	if err != nil {
		return "", err
	}
	if dup {
		logger.Info("duplicate skipped",
			logging.Args(append(logging.DecisionAttrs("auto_ingest", "skip", "already in audit log"),
				logging.String(logging.FieldEventType, "file_duplicate"),
				logging.Int64(logging.FieldCatalogID, result.CatalogID))...)...)
		return DecisionDuplicate, nil
	}

	settings := w.Settings()
	if settings.AutoIngest && result.Confidence >= settings.ConfidenceThreshold {
		logger.Info("auto-ingesting",
			logging.Args(append(logging.DecisionAttrs("auto_ingest", "ingest",
				fmt.Sprintf("confidence %.2f >= %.2f", result.Confidence, settings.ConfidenceThreshold)),
				logging.String(logging.FieldEventType, "file_auto_ingest"),
				logging.Int64(logging.FieldCatalogID, result.CatalogID),
				logging.Float64(logging.FieldConfidence, result.Confidence))...)...)
		_, err := w.ingester.Ingest(ctx, ingest.Request{
			SourcePath:    path,
			CanonicalPath: result.CanonicalPath,
			Guess:         result.Guess,
			Candidate:     result.Candidate,
			Confidence:    result.Confidence,
			Trigger:       from.trigger(),
			TorrentHash:   from.torrentHash,
			TorrentName:   from.torrentName,
		})
		if err != nil {
			return "", err
		}
		return DecisionIngested, nil
	}

	reason := "auto-ingest disabled"
	if settings.AutoIngest {
		reason = fmt.Sprintf("confidence %.2f < %.2f", result.Confidence, settings.ConfidenceThreshold)
	}
	w.queue.Put(PendingItem{
		SourcePath:    path,
		Candidate:     result.Candidate,
		Confidence:    result.Confidence,
		Guess:         result.Guess,
		CanonicalPath: result.CanonicalPath,
		TorrentHash:   from.torrentHash,
		TorrentName:   from.torrentName,
		QueuedAt:      w.now(),
	})
	logger.Info("queued for review",
		logging.Args(append(logging.DecisionAttrs("auto_ingest", "queue", reason),
			logging.String(logging.FieldEventType, "file_queued"),
			logging.Int64(logging.FieldCatalogID, result.CatalogID),
			logging.Float64(logging.FieldConfidence, result.Confidence))...)...)

	if err := w.notifier.Publish(ctx, notifications.EventQueuedForReview, notifications.Payload{
		"filename":   path,
		"title":      result.Candidate.Name,
		"confidence": result.Confidence,
	}); err != nil {
		logging.WarnWithContext(logger, "review notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "operator not alerted about the queued file"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
	return DecisionQueued, nil
}
