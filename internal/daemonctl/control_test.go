package daemonctl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"videodrome/internal/history"
	"videodrome/internal/testsupport"
)

func TestReadPIDFile(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content *string
		want    int
		wantErr bool
	}{
		{name: "missing", content: nil, want: 0},
		{name: "valid", content: ptr(strconv.Itoa(4242) + "\n"), want: 4242},
		{name: "garbage", content: ptr("nope"), wantErr: true},
		{name: "zero", content: ptr("0"), wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".pid")
			if tc.content != nil {
				if err := os.WriteFile(path, []byte(*tc.content), 0o644); err != nil {
					t.Fatalf("write pid: %v", err)
				}
			}
			got, err := ReadPIDFile(path)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("ReadPIDFile = %d, %v; want %d", got, err, tc.want)
			}
		})
	}
}

func ptr(s string) *string { return &s }

func TestProcessInfoWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	alive, pid, err := ProcessInfo(cfg.SocketPath())
	if err != nil || alive || pid != 0 {
		t.Fatalf("ProcessInfo = %v, %d, %v", alive, pid, err)
	}
	if err := WaitForShutdown(cfg.SocketPath(), time.Second); err != nil {
		t.Fatalf("WaitForShutdown: %v", err)
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if _, err := StopAndTerminate(cfg, time.Second); !errors.Is(err, ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestLaunchRequiresExecutable(t *testing.T) {
	if err := Launch("  ", LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable path")
	}
}

func TestBuildStatusSnapshotOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithTMDBKey(""))
	store := testsupport.MustOpenStore(t, cfg)
	testsupport.AddRecord(t, store, history.NewRecord{SourcePath: "/ingest/a.mkv", CatalogID: 1, MediaKind: "movie"}, history.StatusSuccess)
	testsupport.AddRecord(t, store, history.NewRecord{SourcePath: "/ingest/b.mkv", CatalogID: 2, MediaKind: "movie"}, history.StatusPending)

	snapshot, err := BuildStatusSnapshot(context.Background(), cfg)
	if err != nil {
		t.Fatalf("BuildStatusSnapshot: %v", err)
	}
	if snapshot.Daemon.Running {
		t.Fatal("expected daemon to be reported as stopped")
	}
	if snapshot.Daemon.DatabasePath != cfg.DatabasePath() {
		t.Fatalf("unexpected database path %q", snapshot.Daemon.DatabasePath)
	}
	if snapshot.Daemon.History.Total != 2 || snapshot.Daemon.History.ByStatus["PENDING"] != 1 {
		t.Fatalf("unexpected offline stats %+v", snapshot.Daemon.History)
	}
	var tmdbCheck bool
	for _, check := range snapshot.Checks {
		if check.Name == "TMDB" {
			tmdbCheck = true
			if check.Passed {
				t.Fatal("TMDB check should fail without an API key")
			}
		}
	}
	if !tmdbCheck {
		t.Fatalf("expected a TMDB check in %+v", snapshot.Checks)
	}
}

func TestBuildStatusSnapshotRequiresConfig(t *testing.T) {
	if _, err := BuildStatusSnapshot(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
