package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"videodrome/internal/catalog/tmdb"
	"videodrome/internal/config"
	"videodrome/internal/daemon"
	"videodrome/internal/fileops"
	"videodrome/internal/history"
	"videodrome/internal/ingest"
	"videodrome/internal/ipc"
	"videodrome/internal/library"
	"videodrome/internal/logging"
	"videodrome/internal/matcher"
	"videodrome/internal/mediaparse"
	"videodrome/internal/notifications"
	"videodrome/internal/preflight"
	"videodrome/internal/torrent"
	"videodrome/internal/watcher"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the videodrome daemon runtime loop and blocks until the
// process receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("videodrome-%s.log", runID))

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
		SessionID:        uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update videodrome.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "videodrome-*.log", Exclude: []string{logPath}},
	)
	pidPath := filepath.Join(cfg.Paths.LogDir, "videodrome.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	logDependencySnapshot(logger, cfg)
	logPreflight(signalCtx, logger, cfg)

	components, err := BuildComponents(cfg, logger)
	if err != nil {
		logger.Error("build daemon components", logging.Error(err))
		return err
	}

	d, err := daemon.New(cfg, logger, components)
	if err != nil {
		components.Store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration, the history database, and that no other instance holds the lock"),
			logging.String(logging.FieldImpact, "files will not be matched or ingested"),
		)
	}

	<-signalCtx.Done()
	logger.Info("videodrome daemon shutting down")
	return nil
}

// BuildComponents wires the decision pipeline from configuration: filename
// parser, rate-limited catalog client, matcher with the persistent search
// cache, mover, library refresher, notifier, ingest executor, the optional
// Transmission client, and the watcher on top of them. The caller owns the
// returned store.
func BuildComponents(cfg *config.Config, logger *slog.Logger) (daemon.Components, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	parser, err := mediaparse.New(cfg.Matcher.Parser)
	if err != nil {
		return daemon.Components{}, err
	}
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language,
		tmdb.WithRateLimit(cfg.TMDB.RequestsPerSecond))
	if err != nil {
		return daemon.Components{}, err
	}
	operation, err := ingest.ParseOperation(cfg.Library.Operation)
	if err != nil {
		return daemon.Components{}, err
	}
	mover, err := fileops.New(cfg.Paths.MediaRoot, cfg.Watcher.VideoExtensions)
	if err != nil {
		return daemon.Components{}, err
	}
	refresher, err := library.New(cfg)
	if err != nil {
		return daemon.Components{}, err
	}

	var tc *torrent.TransmissionClient
	if cfg.Transmission.Enabled {
		tc, err = torrent.New(cfg.Transmission)
		if err != nil {
			return daemon.Components{}, err
		}
	}

	store, err := history.Open(cfg)
	if err != nil {
		return daemon.Components{}, fmt.Errorf("open history store: %w", err)
	}

	paths := matcher.NewPathBuilder(cfg.Paths.MediaRoot, cfg.Library.MoviesDir, cfg.Library.TVDir, client, logger)
	m := matcher.New(parser, client, paths,
		matcher.WithCache(store),
		matcher.WithConcurrency(cfg.Matcher.BatchConcurrency),
		matcher.WithLogger(logger),
	)
	notifier := notifications.NewService(cfg)
	executor := ingest.NewExecutor(store, mover, operation,
		ingest.WithRefresher(refresher),
		ingest.WithNotifier(notifier),
		ingest.WithLogger(logger),
	)

	deps := watcher.Dependencies{
		Matcher:  m,
		History:  store,
		Ingester: executor,
		Notifier: notifier,
		Logger:   logger,
	}
	if tc != nil {
		deps.Torrents = tc
	}

	return daemon.Components{
		Store:    store,
		Matcher:  m,
		Watcher:  watcher.New(cfg, deps),
		Executor: executor,
		Notifier: notifier,
	}, nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.RunAll(ctx, cfg) {
		if result.Passed {
			logger.Info("preflight check passed",
				logging.String(logging.FieldEventType, "preflight_passed"),
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "dependent operations may fail until resolved"),
			logging.String(logging.FieldErrorHint, "run videodrome status for a full report"),
		)
	}
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "videodrome.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("tmdb_key_present", strings.TrimSpace(cfg.TMDB.APIKey) != ""),
		logging.String("parser", cfg.Matcher.Parser),
		logging.String("operation", cfg.Library.Operation),
		logging.String("library_server", cfg.Library.Server),
		logging.Bool("transmission_enabled", cfg.Transmission.Enabled),
		logging.Bool("ntfy_configured", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.String("api_bind", cfg.Paths.APIBind),
	)
}
