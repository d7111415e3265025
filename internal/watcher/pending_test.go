package watcher

import (
	"errors"
	"testing"
	"time"

	"videodrome/internal/catalog"
	"videodrome/internal/services"
)

func TestPendingQueueOverwriteAndOrder(t *testing.T) {
	q := NewPendingQueue()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	q.Put(PendingItem{SourcePath: "/in/b.mkv", QueuedAt: base.Add(time.Minute)})
	q.Put(PendingItem{SourcePath: "/in/a.mkv", QueuedAt: base.Add(2 * time.Minute)})
	q.Put(PendingItem{SourcePath: "/in/b.mkv", QueuedAt: base, Candidate: catalog.Candidate{ID: 7}})

	if q.Len() != 2 {
		t.Fatalf("expected 2 items after overwrite, got %d", q.Len())
	}
	snap := q.Snapshot()
	if snap[0].SourcePath != "/in/b.mkv" || snap[1].SourcePath != "/in/a.mkv" {
		t.Fatalf("unexpected order %v", []string{snap[0].SourcePath, snap[1].SourcePath})
	}
	if snap[0].Candidate.ID != 7 {
		t.Fatal("re-detection should overwrite the earlier item")
	}
}

func TestPendingQueueNotFound(t *testing.T) {
	q := NewPendingQueue()
	for name, err := range map[string]error{
		"remove": q.Remove("/missing.mkv"),
		"get":    func() error { _, err := q.Get("/missing.mkv"); return err }(),
		"take":   func() error { _, err := q.Take("/missing.mkv"); return err }(),
	} {
		if !errors.Is(err, ErrPendingNotFound) {
			t.Fatalf("%s: expected ErrPendingNotFound, got %v", name, err)
		}
		if !errors.Is(err, services.ErrNotFound) {
			t.Fatalf("%s: expected services.ErrNotFound, got %v", name, err)
		}
	}
}

func TestPendingQueueTakeAndRestore(t *testing.T) {
	q := NewPendingQueue()
	q.Put(PendingItem{SourcePath: "/in/a.mkv", Confidence: 0.5})

	item, err := q.Take("/in/a.mkv")
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if _, err := q.Take("/in/a.mkv"); !IsPendingNotFound(err) {
		t.Fatal("second Take should miss")
	}

	q.Put(PendingItem{SourcePath: "/in/a.mkv", Confidence: 0.9})
	q.Restore(item)
	got, _ := q.Get("/in/a.mkv")
	if got.Confidence != 0.9 {
		t.Fatal("Restore must not clobber a newer item")
	}
}
