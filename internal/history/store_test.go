package history_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"videodrome/internal/history"
	"videodrome/internal/services"
	"videodrome/internal/testsupport"
)

func TestAddRecordStartsPending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	rec, err := store.AddRecord(context.Background(), history.NewRecord{
		SourcePath:      "/ingest/Inception.mkv",
		DestinationPath: "/media/Movies/Inception (2010) {catalog-27205}/Inception (2010) {catalog-27205}.mkv",
		CatalogID:       27205,
		MediaKind:       "movie",
		Confidence:      0.97,
		Metadata:        map[string]any{"title": "Inception"},
	})
	if err != nil {
		t.Fatalf("AddRecord failed: %v", err)
	}
	if rec.ID == 0 || rec.Status != history.StatusPending {
		t.Fatalf("unexpected record: %#v", rec)
	}
	if rec.Metadata["title"] != "Inception" {
		t.Fatalf("metadata not round-tripped: %#v", rec.Metadata)
	}
	if rec.CreatedAt.IsZero() || rec.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}
}

func TestAddRecordRequiresSource(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := store.AddRecord(context.Background(), history.NewRecord{}); err == nil {
		t.Fatal("expected error for empty source path")
	}
}

func TestUpdateRecordTransitions(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	rec := testsupport.AddRecord(t, store, history.NewRecord{SourcePath: "/ingest/a.mkv", DestinationPath: "/media/a.mkv"}, history.StatusPending)

	updated, err := store.UpdateRecord(ctx, rec.ID, history.Outcome{Status: history.StatusSuccess, DestinationPath: "/media/final.mkv"})
	if err != nil {
		t.Fatalf("UpdateRecord failed: %v", err)
	}
	if updated.Status != history.StatusSuccess || updated.DestinationPath != "/media/final.mkv" {
		t.Fatalf("unexpected record after success: %#v", updated)
	}

	again, err := store.UpdateRecord(ctx, rec.ID, history.Outcome{Status: history.StatusSuccess})
	if err != nil {
		t.Fatalf("repeating the same transition should be a no-op, got %v", err)
	}
	if again.DestinationPath != "/media/final.mkv" {
		t.Fatalf("no-op update changed the record: %#v", again)
	}

	if _, err := store.UpdateRecord(ctx, rec.ID, history.Outcome{Status: history.StatusFailed, ErrorMessage: "late"}); !errors.Is(err, history.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for SUCCESS -> FAILED, got %v", err)
	}
	if _, err := store.UpdateRecord(ctx, rec.ID, history.Outcome{Status: history.StatusPending}); !errors.Is(err, history.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for -> PENDING, got %v", err)
	}
	if !errors.Is(history.ErrInvalidTransition, services.ErrValidation) {
		t.Fatal("invalid transition should classify as validation")
	}
}

func TestUpdateRecordFailureKeepsMessage(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	rec := testsupport.AddRecord(t, store, history.NewRecord{SourcePath: "/ingest/b.mkv", DestinationPath: "/media/b.mkv"}, history.StatusPending)

	updated, err := store.UpdateRecord(context.Background(), rec.ID, history.Outcome{Status: history.StatusFailed, ErrorMessage: "invalid extension .txt"})
	if err != nil {
		t.Fatalf("UpdateRecord failed: %v", err)
	}
	if updated.ErrorMessage != "invalid extension .txt" || updated.DestinationPath != "/media/b.mkv" {
		t.Fatalf("unexpected record: %#v", updated)
	}
}

func TestUpdateRecordMissing(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	_, err := store.UpdateRecord(context.Background(), 999, history.Outcome{Status: history.StatusSuccess})
	if !errors.Is(err, history.ErrRecordNotFound) || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestIsDuplicate(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.AddRecord(t, store, history.NewRecord{SourcePath: "/ingest/inception.mkv", DestinationPath: "/m/i.mkv", CatalogID: 27205, MediaKind: "movie"}, history.StatusSuccess)
	testsupport.AddRecord(t, store, history.NewRecord{SourcePath: "/ingest/heat.mkv", DestinationPath: "/m/h.mkv", CatalogID: 949, MediaKind: "movie"}, history.StatusFailed)
	testsupport.AddRecord(t, store, history.NewRecord{SourcePath: "/ingest/bb.s01e01.mkv", DestinationPath: "/m/bb.mkv", CatalogID: 1396, MediaKind: "tv", EpisodeKey: "s01e01"}, history.StatusSuccess)

	tests := []struct {
		name  string
		query history.DuplicateQuery
		want  bool
	}{
		{"same movie", history.DuplicateQuery{CatalogID: 27205, MediaKind: "movie"}, true},
		{"same id other kind", history.DuplicateQuery{CatalogID: 27205, MediaKind: "tv", EpisodeKey: "s01e01"}, false},
		{"failed rows never count", history.DuplicateQuery{CatalogID: 949, MediaKind: "movie"}, false},
		{"same episode", history.DuplicateQuery{CatalogID: 1396, MediaKind: "tv", EpisodeKey: "s01e01"}, true},
		{"next episode", history.DuplicateQuery{CatalogID: 1396, MediaKind: "tv", EpisodeKey: "s01e02"}, false},
		{"same source path", history.DuplicateQuery{SourcePath: "/ingest/inception.mkv"}, true},
		{"failed source path", history.DuplicateQuery{SourcePath: "/ingest/heat.mkv"}, false},
		{"empty query", history.DuplicateQuery{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.IsDuplicate(ctx, tc.query)
			if err != nil {
				t.Fatalf("IsDuplicate failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("IsDuplicate(%+v) = %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestListFiltersAndStats(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.AddRecord(t, store, history.NewRecord{SourcePath: "/i/1.mkv", DestinationPath: "/m/1.mkv", CatalogID: 1, MediaKind: "movie", Confidence: 0.9}, history.StatusSuccess)
	testsupport.AddRecord(t, store, history.NewRecord{SourcePath: "/i/2.mkv", DestinationPath: "/m/2.mkv", CatalogID: 2, MediaKind: "movie", Confidence: 0.7}, history.StatusSuccess)
	testsupport.AddRecord(t, store, history.NewRecord{SourcePath: "/i/3.mkv", DestinationPath: "/m/3.mkv", CatalogID: 3, MediaKind: "tv"}, history.StatusFailed)
	testsupport.AddRecord(t, store, history.NewRecord{SourcePath: "/i/4.mkv", DestinationPath: "/m/4.mkv"}, history.StatusPending)

	all, err := store.List(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 || all[0].SourcePath != "/i/4.mkv" {
		t.Fatalf("expected newest-first list of 4, got %d (first %q)", len(all), all[0].SourcePath)
	}

	success, err := store.List(ctx, history.Filter{Status: history.StatusSuccess, Limit: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(success) != 1 || success[0].CatalogID != 2 {
		t.Fatalf("unexpected filtered list: %#v", success)
	}

	tv, err := store.List(ctx, history.Filter{MediaKind: "tv"})
	if err != nil || len(tv) != 1 || tv[0].CatalogID != 3 {
		t.Fatalf("unexpected tv list: %v %#v", err, tv)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 4 || stats.ByStatus[history.StatusSuccess] != 2 || stats.ByStatus[history.StatusFailed] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
	if stats.ByKind["movie"] != 2 || stats.ByKind["unknown"] != 1 {
		t.Fatalf("unexpected kind stats: %#v", stats.ByKind)
	}
	if diff := stats.AverageConfidence - 0.8; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("average confidence = %v", stats.AverageConfidence)
	}
}

func TestFindBySourceAndPendingOlderThan(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.AddRecord(t, store, history.NewRecord{SourcePath: "/i/x.mkv", DestinationPath: "/m/x.mkv"}, history.StatusFailed)
	pending := testsupport.AddRecord(t, store, history.NewRecord{SourcePath: "/i/x.mkv", DestinationPath: "/m/x.mkv"}, history.StatusPending)

	records, err := store.FindBySource(ctx, "/i/x.mkv")
	if err != nil {
		t.Fatalf("FindBySource failed: %v", err)
	}
	if len(records) != 2 || records[0].ID != pending.ID {
		t.Fatalf("unexpected records: %#v", records)
	}

	orphans, err := store.PendingOlderThan(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("PendingOlderThan failed: %v", err)
	}
	if len(orphans) != 1 || orphans[0].ID != pending.ID {
		t.Fatalf("unexpected orphans: %#v", orphans)
	}
	none, err := store.PendingOlderThan(ctx, time.Now().Add(-time.Hour))
	if err != nil || len(none) != 0 {
		t.Fatalf("expected no orphans before cutoff, got %v %#v", err, none)
	}
}

func TestParseStatus(t *testing.T) {
	for input, want := range map[string]history.Status{"success": history.StatusSuccess, " FAILED ": history.StatusFailed, "Pending": history.StatusPending} {
		got, err := history.ParseStatus(input)
		if err != nil || got != want {
			t.Fatalf("ParseStatus(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := history.ParseStatus("done"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestOpenChecksSchemaVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	store.Close()

	reopened, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("reopen with matching version: %v", err)
	}
	reopened.Close()

	db, err := sql.Open("sqlite", cfg.DatabasePath())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 7"); err != nil {
		t.Fatalf("stamp version: %v", err)
	}
	db.Close()

	if _, err := history.Open(cfg); !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
