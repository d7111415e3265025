package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"videodrome/internal/catalog"
	"videodrome/internal/fileops"
	"videodrome/internal/history"
	"videodrome/internal/library"
	"videodrome/internal/logging"
	"videodrome/internal/mediaparse"
	"videodrome/internal/notifications"
	"videodrome/internal/services"
)

// Operation selects how files reach the library.
type Operation string

const (
	OperationCopy Operation = "copy"
	OperationMove Operation = "move"
)

// ParseOperation validates a library.operation value.
func ParseOperation(value string) (Operation, error) {
	switch Operation(strings.ToLower(strings.TrimSpace(value))) {
	case "", OperationCopy:
		return OperationCopy, nil
	case OperationMove:
		return OperationMove, nil
	default:
		return "", services.Wrap(services.ErrConfiguration, "ingest", "parse operation",
			fmt.Sprintf("unsupported library.operation %q", value), nil)
	}
}

// Trigger records what started an ingest.
type Trigger string

const (
	TriggerAuto    Trigger = "auto"
	TriggerApprove Trigger = "approve"
	TriggerTorrent Trigger = "torrent"
)

// Store is the audit log surface the saga needs.
type Store interface {
	AddRecord(ctx context.Context, rec history.NewRecord) (*history.Record, error)
	UpdateRecord(ctx context.Context, id int64, outcome history.Outcome) (*history.Record, error)
	PendingOlderThan(ctx context.Context, cutoff time.Time) ([]*history.Record, error)
}

// Mover transfers a file and returns the path it landed at.
type Mover interface {
	Copy(src, dst string) (string, error)
	Move(src, dst string) (string, error)
}

// Request describes one file to ingest.
type Request struct {
	SourcePath    string
	CanonicalPath string
	Guess         mediaparse.Guess
	Candidate     catalog.Candidate
	Confidence    float64
	Trigger       Trigger
	TorrentHash   string
	TorrentName   string
}

// Executor runs the ingest saga.
type Executor struct {
	store     Store
	mover     Mover
	operation Operation
	refresher library.Refresher
	notifier  notifications.Service
	logger    *slog.Logger
}

// Option customizes an Executor.
type Option func(*Executor)

// WithRefresher sets the media server refreshed after each ingest.
func WithRefresher(r library.Refresher) Option {
	return func(e *Executor) {
		if r != nil {
			e.refresher = r
		}
	}
}

// WithNotifier sets the notification sink.
func WithNotifier(n notifications.Service) Option {
	return func(e *Executor) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithLogger sets the executor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logging.NewComponentLogger(logger, "ingest")
		}
	}
}

// NewExecutor builds an Executor. Refresher and notifier default to no-ops.
func NewExecutor(store Store, mover Mover, operation Operation, opts ...Option) *Executor {
	e := &Executor{
		store:     store,
		mover:     mover,
		operation: operation,
		logger:    logging.NewNop(),
	}
	if e.operation == "" {
		e.operation = OperationCopy
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.refresher == nil {
		e.refresher, _ = library.New(nil)
	}
	if e.notifier == nil {
		e.notifier = notifications.NewService(nil)
	}
	return e
}

// DuplicateQuery builds the audit log lookup for content described by guess
// and candidate. Episodes are keyed per episode so later episodes of an
// ingested show are not treated as duplicates.
func DuplicateQuery(sourcePath string, guess mediaparse.Guess, candidate catalog.Candidate) history.DuplicateQuery {
	return history.DuplicateQuery{
		CatalogID:  candidate.ID,
		MediaKind:  string(candidate.Kind),
		EpisodeKey: episodeKey(guess, candidate),
		SourcePath: sourcePath,
	}
}

func episodeKey(guess mediaparse.Guess, candidate catalog.Candidate) string {
	if candidate.Kind != catalog.KindShow || !guess.IsEpisode() {
		return ""
	}
	return guess.EpisodeKey()
}

// Ingest records, transfers and resolves one file. The returned record is
// the resolved audit row; on failure it is the FAILED row when one could be
// written.
func (e *Executor) Ingest(ctx context.Context, req Request) (*history.Record, error) {
	if strings.TrimSpace(req.SourcePath) == "" || strings.TrimSpace(req.CanonicalPath) == "" {
		return nil, services.Wrap(services.ErrValidation, "ingest", "ingest", "source and destination paths are required", nil)
	}
	ctx = services.WithSourcePath(ctx, req.SourcePath)
	logger := logging.WithContext(ctx, e.logger)

	rec, err := e.store.AddRecord(ctx, history.NewRecord{
		SourcePath:      req.SourcePath,
		DestinationPath: req.CanonicalPath,
		CatalogID:       req.Candidate.ID,
		MediaKind:       string(req.Candidate.Kind),
		EpisodeKey:      episodeKey(req.Guess, req.Candidate),
		Confidence:      req.Confidence,
		Metadata:        metadataFor(req),
	})
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "ingest", "record pending", "audit log insert failed", err)
	}

	final, moveErr := e.transfer(req.SourcePath, req.CanonicalPath)
	if moveErr != nil {
		failed, updateErr := e.store.UpdateRecord(ctx, rec.ID, history.Outcome{
			Status:       history.StatusFailed,
			ErrorMessage: moveErr.Error(),
		})
		if updateErr != nil {
			logging.ErrorWithContext(logger, "failed to record ingest failure", "ingest_record_failed",
				logging.Int64("record_id", rec.ID),
				logging.Error(updateErr),
				logging.String(logging.FieldErrorHint, "the record stays PENDING until reconciliation runs"),
			)
		}
		logging.WarnWithContext(logger, "ingest failed", "ingest_failed",
			logging.String(logging.FieldDestinationPath, req.CanonicalPath),
			logging.String("error_code", string(fileops.CodeOf(moveErr))),
			logging.Error(moveErr),
			logging.String(logging.FieldImpact, "file was not added to the library"),
			logging.String(logging.FieldErrorHint, "check permissions and free space under the media root"),
		)
		e.publish(ctx, logger, notifications.EventIngestFailed, notifications.Payload{
			"source": req.SourcePath,
			"error":  moveErr.Error(),
		})
		return failed, moveErr
	}

	done, err := e.store.UpdateRecord(ctx, rec.ID, history.Outcome{
		Status:          history.StatusSuccess,
		DestinationPath: final,
	})
	if err != nil {
		logging.ErrorWithContext(logger, "file transferred but audit log update failed", "ingest_record_failed",
			logging.Int64("record_id", rec.ID),
			logging.String(logging.FieldDestinationPath, final),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "reconciliation resolves the PENDING record"),
		)
		return nil, services.Wrap(services.ErrTransient, "ingest", "record success", "audit log update failed", err)
	}

	logger.Info("ingest complete",
		logging.String(logging.FieldEventType, "ingest_complete"),
		logging.String(logging.FieldDestinationPath, final),
		logging.Int64(logging.FieldCatalogID, req.Candidate.ID),
		logging.Float64(logging.FieldConfidence, req.Confidence),
		logging.String("operation", string(e.operation)),
		logging.String("trigger", string(req.Trigger)),
	)

	e.refresh(ctx, logger, req.Candidate.Kind)
	e.publish(ctx, logger, notifications.EventIngested, notifications.Payload{
		"title":       displayTitle(req),
		"destination": final,
		"kind":        string(req.Candidate.Kind),
	})
	return done, nil
}

func (e *Executor) transfer(src, dst string) (string, error) {
	if e.operation == OperationMove {
		return e.mover.Move(src, dst)
	}
	return e.mover.Copy(src, dst)
}

func (e *Executor) refresh(ctx context.Context, logger *slog.Logger, kind catalog.Kind) {
	if e.refresher.Server() == library.ServerNone {
		return
	}
	target := library.KindMovie
	if kind == catalog.KindShow {
		target = library.KindShow
	}
	if err := e.refresher.Refresh(ctx, target); err != nil {
		logging.WarnWithContext(logger, "library refresh failed", "library_refresh_failed",
			logging.String("server", string(e.refresher.Server())),
			logging.Error(err),
			logging.String(logging.FieldImpact, "new file appears after the next scheduled library scan"),
			logging.String(logging.FieldErrorHint, "check library.url and library.token"),
		)
	}
}

func (e *Executor) publish(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if err := e.notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no push notification was delivered"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

func metadataFor(req Request) map[string]any {
	meta := map[string]any{
		"title":        req.Candidate.Name,
		"release_date": req.Candidate.ReleaseDate,
		"parsed_title": req.Guess.Title,
		"parsed_kind":  string(req.Guess.Kind),
	}
	if req.Guess.Year > 0 {
		meta["parsed_year"] = req.Guess.Year
	}
	if req.Trigger != "" {
		meta["trigger"] = string(req.Trigger)
	}
	if req.TorrentHash != "" {
		meta["torrent_hash"] = req.TorrentHash
		meta["torrent_name"] = req.TorrentName
	}
	return meta
}

func displayTitle(req Request) string {
	name := req.Candidate.Name
	if name == "" {
		name = req.Guess.Title
	}
	if name == "" {
		name = filepath.Base(req.SourcePath)
	}
	if year := req.Candidate.Year(); year > 0 {
		name = fmt.Sprintf("%s (%d)", name, year)
	}
	if key := episodeKey(req.Guess, req.Candidate); key != "" {
		name += " " + key
	}
	return name
}
