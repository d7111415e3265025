package api

import (
	"errors"
	"testing"
	"time"

	"videodrome/internal/catalog"
	"videodrome/internal/history"
	"videodrome/internal/matcher"
	"videodrome/internal/mediaparse"
	"videodrome/internal/services"
	"videodrome/internal/watcher"
)

func TestFromPendingItem(t *testing.T) {
	queued := time.Date(2024, 3, 1, 12, 30, 0, 0, time.FixedZone("CET", 3600))
	item := watcher.PendingItem{
		SourcePath: "/ingest/show.s01e02.mkv",
		Candidate: catalog.Candidate{
			ID:          1396,
			Name:        "Breaking Bad",
			ReleaseDate: "2008-01-20",
			Kind:        catalog.KindShow,
		},
		Guess:       mediaparse.Guess{Title: "show", Season: 1, Episode: 2, Kind: mediaparse.KindEpisode},
		Confidence:  0.72,
		TorrentHash: "abc",
		QueuedAt:    queued,
	}
	dto := FromPendingItem(item)
	if dto.Filename != "show.s01e02.mkv" {
		t.Fatalf("unexpected filename %q", dto.Filename)
	}
	if dto.Title != "Breaking Bad" || dto.Year != 2008 || dto.CatalogID != 1396 || dto.Kind != "show" {
		t.Fatalf("unexpected candidate fields: %+v", dto)
	}
	if dto.Season != 1 || dto.Episode != 2 {
		t.Fatalf("unexpected episode fields: %+v", dto)
	}
	if dto.QueuedAt != "2024-03-01T11:30:00.000Z" {
		t.Fatalf("expected UTC timestamp, got %q", dto.QueuedAt)
	}
}

func TestFromMatchResultsKeepsSlots(t *testing.T) {
	inputs := []string{"a.mkv", "b.mkv", "c.mkv"}
	results := []*matcher.Result{
		{
			Guess:         mediaparse.Guess{Title: "Inception", Year: 2010, Kind: mediaparse.KindMovie},
			CatalogID:     27205,
			Candidate:     catalog.Candidate{ID: 27205, Name: "Inception", ReleaseDate: "2010-07-16", Kind: catalog.KindMovie},
			Confidence:    0.97,
			CanonicalPath: "/media/Movies/Inception (2010) {catalog-27205}/Inception (2010) {catalog-27205}.mkv",
		},
		nil,
	}
	out := FromMatchResults(inputs, results)
	if len(out) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(out))
	}
	if !out[0].Matched || out[0].Year != 2010 || out[0].Season != 0 {
		t.Fatalf("unexpected first slot: %+v", out[0])
	}
	for _, slot := range out[1:] {
		if slot.Matched {
			t.Fatalf("expected unmatched slot, got %+v", slot)
		}
	}
	if out[2].Input != "c.mkv" {
		t.Fatalf("expected input preserved, got %q", out[2].Input)
	}
}

func TestHistoryListRequestToFilter(t *testing.T) {
	filter, err := HistoryListRequest{Status: "failed", CatalogID: 7, Kind: "movie", Limit: 5}.ToFilter()
	if err != nil {
		t.Fatalf("ToFilter: %v", err)
	}
	if filter.Status != history.StatusFailed || filter.CatalogID != 7 || filter.MediaKind != "movie" || filter.Limit != 5 {
		t.Fatalf("unexpected filter: %+v", filter)
	}

	_, err = HistoryListRequest{Status: "sideways"}.ToFilter()
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFromHistoryStats(t *testing.T) {
	stats := FromHistoryStats(history.Stats{
		Total:    3,
		ByStatus: map[history.Status]int{history.StatusSuccess: 2, history.StatusFailed: 1},
		ByKind:   map[string]int{"movie": 3},
	})
	if stats.ByStatus["SUCCESS"] != 2 || stats.ByStatus["FAILED"] != 1 || stats.ByKind["movie"] != 3 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestWatcherConfigRequest(t *testing.T) {
	if !(WatcherConfigRequest{}).IsEmpty() {
		t.Fatal("expected empty request")
	}
	threshold := 0.9
	update := WatcherConfigRequest{ConfidenceThreshold: &threshold}.ToUpdate()
	if update.ConfidenceThreshold == nil || *update.ConfidenceThreshold != 0.9 || update.AutoIngest != nil {
		t.Fatalf("unexpected update: %+v", update)
	}
}
