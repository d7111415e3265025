package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"videodrome/internal/ingest"
	"videodrome/internal/logging"
	"videodrome/internal/services"
)

const schedulerStopTimeout = 30 * time.Second

// cronLogger adapts slog to the cron.Logger interface. Cron's own info
// chatter is demoted to debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{logging.Error(err)}, keysAndValues...)
	l.logger.Error("cron: "+msg, args...)
}

func (d *Daemon) newScheduler(ctx context.Context) (*cron.Cron, error) {
	clog := cronLogger{logger: logging.NewComponentLogger(d.logger, "maintenance")}
	scheduler := cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context)
	}{
		{name: "reconcile", schedule: d.cfg.Maintenance.ReconcileSchedule, run: d.reconcile},
		{name: "cache_purge", schedule: d.cfg.Maintenance.CachePurgeSchedule, run: d.purgeCache},
	}
	for _, job := range jobs {
		run := job.run
		if _, err := scheduler.AddFunc(job.schedule, func() { run(ctx) }); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "maintenance", "schedule "+job.name,
				"invalid cron expression "+job.schedule, err)
		}
		d.logger.Debug("maintenance job scheduled",
			logging.String("job", job.name),
			logging.String("schedule", job.schedule),
		)
	}
	return scheduler, nil
}

func (d *Daemon) stopScheduler() {
	if d.scheduler == nil {
		return
	}
	done := d.scheduler.Stop()
	select {
	case <-done.Done():
	case <-time.After(schedulerStopTimeout):
		d.logger.Warn("maintenance jobs still running after stop timeout",
			logging.Duration("timeout", schedulerStopTimeout))
	}
	d.scheduler = nil
}

// Reconcile resolves PENDING audit rows older than
// maintenance.orphan_after_minutes.
func (d *Daemon) Reconcile(ctx context.Context) (ingest.ReconcileReport, error) {
	return d.executor.Reconcile(ctx, d.cfg.OrphanAfter())
}

// PurgeCache removes expired search-cache rows.
func (d *Daemon) PurgeCache(ctx context.Context) (int64, error) {
	return d.store.PurgeSearchCache(ctx)
}

func (d *Daemon) reconcile(ctx context.Context) {
	report, err := d.Reconcile(ctx)
	if err != nil {
		logging.WarnWithContext(d.logger, "orphan reconciliation failed", "reconcile_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "interrupted ingests stay PENDING until the next pass"),
			logging.String(logging.FieldErrorHint, "check the state database is writable"),
		)
		return
	}
	if report.Examined == 0 {
		return
	}
	d.logger.Info("orphan reconciliation complete",
		logging.String(logging.FieldEventType, "reconcile_complete"),
		logging.Int("examined", report.Examined),
		logging.Int("succeeded", report.Succeeded),
		logging.Int("failed", report.Failed),
	)
}

func (d *Daemon) purgeCache(ctx context.Context) {
	removed, err := d.PurgeCache(ctx)
	if err != nil {
		logging.WarnWithContext(d.logger, "search cache purge failed", "cache_purge_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "expired catalog results keep using disk space"),
			logging.String(logging.FieldErrorHint, "check the state database is writable"),
		)
		return
	}
	d.logger.Debug("search cache purged", logging.Int64("removed", removed))
}
