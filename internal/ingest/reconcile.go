package ingest

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"videodrome/internal/history"
	"videodrome/internal/logging"
)

// InterruptedMessage is recorded on PENDING rows whose transfer never finished.
const InterruptedMessage = "interrupted before completion"

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	Examined  int `json:"examined"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Reconcile resolves PENDING records created more than olderThan ago. A
// record whose destination exists is considered complete when the source
// still has the same size, or when the source is gone (a finished move).
// Everything else is marked FAILED.
func (e *Executor) Reconcile(ctx context.Context, olderThan time.Duration) (ReconcileReport, error) {
	var report ReconcileReport
	cutoff := time.Now().Add(-olderThan)
	orphans, err := e.store.PendingOlderThan(ctx, cutoff)
	if err != nil {
		return report, err
	}
	for _, rec := range orphans {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Examined++
		outcome := resolveOrphan(rec)
		if _, err := e.store.UpdateRecord(ctx, rec.ID, outcome); err != nil {
			if errors.Is(err, history.ErrInvalidTransition) {
				// Resolved concurrently by the saga itself.
				continue
			}
			return report, err
		}
		if outcome.Status == history.StatusSuccess {
			report.Succeeded++
		} else {
			report.Failed++
		}
		e.logger.Info("orphaned ingest resolved",
			logging.String(logging.FieldEventType, "ingest_reconciled"),
			logging.Int64("record_id", rec.ID),
			logging.String(logging.FieldSourcePath, rec.SourcePath),
			logging.String("status", string(outcome.Status)),
		)
	}
	return report, nil
}

func resolveOrphan(rec *history.Record) history.Outcome {
	failed := history.Outcome{Status: history.StatusFailed, ErrorMessage: InterruptedMessage}
	if rec.DestinationPath == "" {
		return failed
	}
	dst, err := os.Stat(rec.DestinationPath)
	if err != nil || !dst.Mode().IsRegular() {
		return failed
	}
	src, err := os.Stat(rec.SourcePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return history.Outcome{Status: history.StatusSuccess, DestinationPath: rec.DestinationPath}
	case err != nil:
		return failed
	case src.Size() == dst.Size():
		return history.Outcome{Status: history.StatusSuccess, DestinationPath: rec.DestinationPath}
	default:
		return failed
	}
}
