package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"videodrome/internal/catalog"
	"videodrome/internal/catalog/tmdb"
	"videodrome/internal/services"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *tmdb.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := tmdb.New("key", server.URL, "en-US")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US"); err == nil {
		t.Fatal("expected error when api key missing")
	}
	if _, err := tmdb.New("key", " ", "en-US"); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestSearchMovieSendsYearFilter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "key" || q.Get("language") != "en-US" {
			t.Errorf("missing auth or language: %q", r.URL.RawQuery)
		}
		if q.Get("primary_release_year") != "2010" {
			t.Errorf("expected primary_release_year=2010, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":27205,"title":"Inception","release_date":"2010-07-15","popularity":80}]}`))
	})

	resp, err := client.SearchMovie(context.Background(), "Inception", tmdb.SearchOptions{Year: 2010})
	if err != nil {
		t.Fatalf("SearchMovie returned error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Title != "Inception" {
		t.Fatalf("unexpected response: %#v", resp)
	}
	if resp.Results[0].MediaType != "movie" {
		t.Fatalf("expected media type movie, got %q", resp.Results[0].MediaType)
	}
}

func TestSearchTVOmitsYearWhenAbsent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Has("first_air_date_year") {
			t.Errorf("year filter should be absent: %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"results":[{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20"}]}`))
	})

	resp, err := client.SearchTV(context.Background(), "Breaking Bad", tmdb.SearchOptions{})
	if err != nil {
		t.Fatalf("SearchTV returned error: %v", err)
	}
	if got := resp.Results[0].DisplayName(); got != "Breaking Bad" {
		t.Fatalf("DisplayName = %q", got)
	}
}

func TestSearchStatusErrorsAreClassified(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"server error", http.StatusInternalServerError, services.ErrTransient},
		{"rate limited", http.StatusTooManyRequests, services.ErrTransient},
		{"bad key", http.StatusUnauthorized, services.ErrConfiguration},
		{"missing", http.StatusNotFound, services.ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})
			_, err := client.SearchMovie(context.Background(), "fail", tmdb.SearchOptions{})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSearchMovieEmptyQuery(t *testing.T) {
	client, err := tmdb.New("key", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMovie(context.Background(), "  ", tmdb.SearchOptions{}); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestGetEpisodeAllowsSpecials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv/1396/season/0/episode/3" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":9,"name":" Minisode ","season_number":0,"episode_number":3}`))
	})

	title, err := client.EpisodeTitle(context.Background(), 1396, 0, 3)
	if err != nil {
		t.Fatalf("EpisodeTitle returned error: %v", err)
	}
	if title != "Minisode" {
		t.Fatalf("EpisodeTitle = %q", title)
	}
}

func TestGetEpisodeRejectsInvalidReference(t *testing.T) {
	client, _ := tmdb.New("key", "https://example.com", "")
	if _, err := client.GetEpisode(context.Background(), 1, 1, 0); err == nil {
		t.Fatal("expected error for episode 0")
	}
	if _, err := client.GetEpisode(context.Background(), 0, 1, 1); err == nil {
		t.Fatal("expected error for show id 0")
	}
}

func TestSearchReturnsCandidatesInOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[
			{"id":2,"name":"The Office","first_air_date":"2005-03-24","popularity":120.5},
			{"id":1,"name":"The Office","first_air_date":"2001-07-09","popularity":-1}
		]}`))
	})

	candidates, err := client.Search(context.Background(), catalog.Query{Title: "The Office", Kind: catalog.KindShow})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	first := candidates[0]
	if first.ID != 2 || first.Kind != catalog.KindShow || first.Year() != 2005 {
		t.Fatalf("unexpected first candidate: %#v", first)
	}
	if candidates[1].Popularity != 0 {
		t.Fatalf("negative popularity should clamp to 0, got %v", candidates[1].Popularity)
	}
}

func TestRateLimitedClientHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "", tmdb.WithRateLimit(0.001))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMovie(context.Background(), "first", tmdb.SearchOptions{}); err != nil {
		t.Fatalf("first request should use the burst token: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.SearchMovie(ctx, "second", tmdb.SearchOptions{}); err == nil {
		t.Fatal("expected cancelled context to abort the rate-limit wait")
	}
}
