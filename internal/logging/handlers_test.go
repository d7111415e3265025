package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	return entry
}

func TestSessionHandlerStampsRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newSessionHandler(slog.NewJSONHandler(&buf, nil), "run-123"))
	logger.With(String(FieldComponent, "watcher")).Info("file detected")

	entry := decodeLine(t, &buf)
	if entry[FieldSessionID] != "run-123" {
		t.Fatalf("expected session id, got %v", entry[FieldSessionID])
	}
	if entry[FieldComponent] != "watcher" {
		t.Fatalf("expected component attr, got %v", entry[FieldComponent])
	}
}

func TestSessionHandlerKeepsExplicitSession(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newSessionHandler(slog.NewJSONHandler(&buf, nil), "daemon-run"))
	logger.With(String(FieldSessionID, "cli-run")).Info("status requested")

	if got := strings.Count(buf.String(), `"session_id"`); got != 1 {
		t.Fatalf("expected one session_id key, got %d in %s", got, buf.String())
	}
	if entry := decodeLine(t, &buf); entry[FieldSessionID] != "cli-run" {
		t.Fatalf("expected explicit session id to win, got %v", entry[FieldSessionID])
	}
}

func TestSessionHandlerNilBase(t *testing.T) {
	if _, ok := newSessionHandler(nil, "run").(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when base is nil")
	}
}

func TestJSONHandlerFormatsDurationsAndTime(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, lvl, false))
	logger.Warn("catalog search failed; retrying", Duration("backoff", 2*time.Second), Int("attempt", 1))

	entry := decodeLine(t, &buf)
	if entry["level"] != "warn" {
		t.Fatalf("expected lower-case level, got %v", entry["level"])
	}
	if entry["backoff"] != "2s" {
		t.Fatalf("expected duration string, got %v", entry["backoff"])
	}
	ts, ok := entry["ts"].(string)
	if !ok || !strings.HasSuffix(ts, "Z") {
		t.Fatalf("expected UTC ts, got %v", entry["ts"])
	}
	if _, err := time.Parse(jsonTimeFormat, ts); err != nil {
		t.Fatalf("parse ts: %v", err)
	}
}
