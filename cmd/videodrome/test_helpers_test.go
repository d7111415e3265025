package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"videodrome/internal/catalog"
	"videodrome/internal/config"
	"videodrome/internal/daemon"
	"videodrome/internal/fileops"
	"videodrome/internal/history"
	"videodrome/internal/ingest"
	"videodrome/internal/ipc"
	"videodrome/internal/logging"
	"videodrome/internal/matcher"
	"videodrome/internal/mediaparse"
	"videodrome/internal/testsupport"
	"videodrome/internal/watcher"
)

type stubParser map[string]mediaparse.Guess

func (p stubParser) Parse(filename string) mediaparse.Guess { return p[filename] }

type stubCatalog map[string][]catalog.Candidate

func (c stubCatalog) Search(_ context.Context, query catalog.Query) ([]catalog.Candidate, error) {
	return c[query.Title], nil
}

func (stubCatalog) EpisodeTitle(context.Context, int64, int, int) (string, error) {
	return "", errors.New("not found")
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *history.Store
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	tmdbStub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"images":{},"results":[]}`))
	}))
	t.Cleanup(tmdbStub.Close)

	cfg := testsupport.NewConfig(t)
	cfg.TMDB.BaseURL = tmdbStub.URL

	configPath := filepath.Join(filepath.Dir(cfg.Paths.LogDir), "config.toml")
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)
	mover, err := fileops.New(cfg.Paths.MediaRoot, cfg.Watcher.VideoExtensions)
	if err != nil {
		t.Fatalf("fileops.New: %v", err)
	}
	executor := ingest.NewExecutor(store, mover, ingest.OperationCopy)
	parser := stubParser{"Heat.1995.mkv": {Title: "Heat", Year: 1995, Kind: mediaparse.KindMovie}}
	client := stubCatalog{"Heat": {{ID: 949, Name: "Heat", ReleaseDate: "1995-12-15", Popularity: 40, Kind: catalog.KindMovie}}}
	m := matcher.New(parser, client, matcher.NewPathBuilder(cfg.Paths.MediaRoot, cfg.Library.MoviesDir, cfg.Library.TVDir, client, nil))
	w := watcher.New(cfg, watcher.Dependencies{Matcher: m, History: store, Ingester: executor})

	logger := logging.NewNop()
	d, err := daemon.New(cfg, logger, daemon.Components{
		Store:    store,
		Matcher:  m,
		Watcher:  w,
		Executor: executor,
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon Start: %v", err)
	}
	socketPath := cfg.SocketPath()
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		cancel()
		d.Close()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI tests: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if socket != "" {
		flags = append(flags, "--socket", socket)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ningest_dir = %q\nmedia_root = %q\nstate_dir = %q\nlog_dir = %q\napi_bind = \"\"\n\n[tmdb]\napi_key = %q\nbase_url = %q\n",
		cfg.Paths.IngestDir,
		cfg.Paths.MediaRoot,
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.TMDB.APIKey,
		cfg.TMDB.BaseURL,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
