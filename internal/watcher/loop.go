package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"videodrome/internal/logging"
	"videodrome/internal/services"
)

// observe forwards fsnotify events for video files. It never touches the
// tracking table.
func (w *Watcher) observe(ctx context.Context, fsw *fsnotify.Watcher, out chan<- fileEvent) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			var fe fileEvent
			switch {
			case ev.Has(fsnotify.Create):
				if !w.isVideoPath(ev.Name) {
					continue
				}
				fe = fileEvent{path: ev.Name}
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				fe = fileEvent{path: ev.Name, gone: true}
			default:
				continue
			}
			select {
			case out <- fe:
			case <-ctx.Done():
				return
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			logging.WarnWithContext(w.logger, "filesystem watch error", "watcher_fs_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some file events may have been missed"),
				logging.String(logging.FieldErrorHint, "restart the watcher to rescan the ingest directory"),
			)
		}
	}
}

// consume owns the tracking table. It seeds the table from files already in
// the ingest directory, then alternates between new events and stability
// checks.
func (w *Watcher) consume(ctx context.Context, in <-chan fileEvent) {
	defer w.wg.Done()
	tracked := make(map[string]struct{})
	for _, path := range w.scanExisting() {
		w.track(tracked, path)
	}

	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-in:
			if ev.gone {
				if _, ok := tracked[ev.path]; ok {
					delete(tracked, ev.path)
					w.detector.Forget(ev.path)
					w.tracked.Store(int64(len(tracked)))
					w.logger.Debug("tracked file disappeared", logging.String(logging.FieldSourcePath, ev.path))
				}
				continue
			}
			w.track(tracked, ev.path)
		case <-ticker.C:
			w.checkTracked(ctx, tracked)
		}
	}
}

func (w *Watcher) track(tracked map[string]struct{}, path string) {
	if _, ok := tracked[path]; ok {
		return
	}
	tracked[path] = struct{}{}
	w.tracked.Store(int64(len(tracked)))
	w.logger.Info("new file detected",
		logging.String(logging.FieldEventType, "file_detected"),
		logging.String(logging.FieldSourcePath, path),
	)
}

func (w *Watcher) scanExisting() []string {
	entries, err := os.ReadDir(w.ingestDir)
	if err != nil {
		logging.WarnWithContext(w.logger, "startup scan failed", "watcher_scan_failed",
			logging.String("ingest_dir", w.ingestDir),
			logging.Error(err),
			logging.String(logging.FieldImpact, "files present before start are not tracked"),
			logging.String(logging.FieldErrorHint, "check paths.ingest_dir permissions"),
		)
		return nil
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(w.ingestDir, entry.Name())
		if w.isVideoPath(path) {
			paths = append(paths, path)
		}
	}
	return paths
}

// checkTracked runs one stability pass. A panic aborts only this pass.
func (w *Watcher) checkTracked(ctx context.Context, tracked map[string]struct{}) {
	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(w.logger, "stability check panicked", "stability_check_panic",
				logging.String("panic", fmt.Sprint(r)),
				logging.String(logging.FieldErrorHint, "the next pass retries every tracked file"),
			)
		}
	}()

	var stable []string
	for path := range tracked {
		if w.detector.Check(path) {
			stable = append(stable, path)
		}
	}
	sort.Strings(stable)
	for _, path := range stable {
		if ctx.Err() != nil {
			return
		}
		delete(tracked, path)
		w.detector.Forget(path)
		w.tracked.Store(int64(len(tracked)))
		w.processStable(ctx, path)
	}
}

// processStable runs the decision policy for one file whose size settled.
func (w *Watcher) processStable(ctx context.Context, path string) {
	w.processing.Add(1)
	defer w.processing.Add(-1)

	ctx = services.WithRequestID(ctx, uuid.NewString())
	ctx = services.WithSourcePath(ctx, path)
	logger := logging.WithContext(ctx, w.logger)

	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logger, "file processing panicked", "file_processing_panic",
				logging.String("panic", fmt.Sprint(r)),
				logging.String(logging.FieldErrorHint, "drop the file into the ingest directory again to retry"),
			)
		}
	}()

	logger.Info("processing stable file", logging.String(logging.FieldEventType, "file_stable"))
	decision, err := w.decide(ctx, path, origin{})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logging.WarnWithContext(logger, "file not processed", "file_processing_failed",
			logging.String("error_kind", string(services.Kind(err))),
			logging.Error(err),
			logging.String(logging.FieldImpact, "file left in the ingest directory"),
			logging.String(logging.FieldErrorHint, "approve manually or drop the file in again"),
		)
		return
	}
	logger.Debug("file processed", logging.String("decision", string(decision)))
}
