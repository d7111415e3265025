package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"videodrome/internal/testsupport"
)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func TestStabilityDetectorLifecycle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.mkv")
	testsupport.WriteFile(t, path, 100)

	clock := &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	window := 60 * time.Second
	d := NewStabilityDetector(func() time.Duration { return window }, clock.Now)

	if d.Check(path) {
		t.Fatal("first observation must not be stable")
	}
	clock.Advance(30 * time.Second)
	if d.Check(path) {
		t.Fatal("stable before the window elapsed")
	}

	testsupport.WriteFile(t, path, 200)
	clock.Advance(45 * time.Second)
	if d.Check(path) {
		t.Fatal("size change must reset the clock")
	}
	clock.Advance(59 * time.Second)
	if d.Check(path) {
		t.Fatal("stable one second early")
	}
	clock.Advance(time.Second)
	if !d.Check(path) {
		t.Fatal("expected stable once the window elapsed")
	}
	if !d.Check(path) {
		t.Fatal("stable must be idempotent")
	}

	d.Forget(path)
	if d.Len() != 0 {
		t.Fatalf("Forget left %d entries", d.Len())
	}
	if d.Check(path) {
		t.Fatal("forgotten path starts over")
	}
}

func TestStabilityDetectorMissingFileKeepsState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.mkv")
	testsupport.WriteFile(t, path, 10)

	clock := &manualClock{now: time.Unix(0, 0)}
	d := NewStabilityDetector(func() time.Duration { return 10 * time.Second }, clock.Now)
	d.Check(path)

	if err := os.Rename(path, path+".tmp"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	clock.Advance(20 * time.Second)
	if d.Check(path) {
		t.Fatal("missing file cannot be stable")
	}
	if err := os.Rename(path+".tmp", path); err != nil {
		t.Fatalf("rename back: %v", err)
	}
	if !d.Check(path) {
		t.Fatal("state recorded before the hiccup should still count")
	}
}

func TestStabilityDetectorReadsWindowLive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.mkv")
	testsupport.WriteFile(t, path, 10)

	clock := &manualClock{now: time.Unix(0, 0)}
	window := time.Hour
	d := NewStabilityDetector(func() time.Duration { return window }, clock.Now)
	d.Check(path)
	clock.Advance(5 * time.Second)
	if d.Check(path) {
		t.Fatal("one hour window not elapsed")
	}
	window = 5 * time.Second
	if !d.Check(path) {
		t.Fatal("shortened window should apply to tracked files")
	}
}
