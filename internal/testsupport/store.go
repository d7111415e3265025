package testsupport

import (
	"context"
	"testing"

	"videodrome/internal/config"
	"videodrome/internal/history"
)

// MustOpenStore opens a history.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// AddRecord inserts a PENDING record and optionally resolves it.
func AddRecord(t testing.TB, store *history.Store, rec history.NewRecord, status history.Status) *history.Record {
	t.Helper()

	ctx := context.Background()
	added, err := store.AddRecord(ctx, rec)
	if err != nil {
		t.Fatalf("store.AddRecord: %v", err)
	}
	if status == "" || status == history.StatusPending {
		return added
	}
	updated, err := store.UpdateRecord(ctx, added.ID, history.Outcome{Status: status})
	if err != nil {
		t.Fatalf("store.UpdateRecord: %v", err)
	}
	return updated
}
