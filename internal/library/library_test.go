package library_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"videodrome/internal/library"
	"videodrome/internal/services"
	"videodrome/internal/testsupport"
)

func TestParseServer(t *testing.T) {
	tests := []struct {
		input   string
		want    library.Server
		wantErr bool
	}{
		{"", library.ServerNone, false},
		{"None", library.ServerNone, false},
		{" plex ", library.ServerPlex, false},
		{"JELLYFIN", library.ServerJellyfin, false},
		{"emby", "", true},
	}
	for _, tc := range tests {
		got, err := library.ParseServer(tc.input)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseServer(%q) err = %v", tc.input, err)
		}
		if tc.wantErr {
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
			continue
		}
		if got != tc.want {
			t.Fatalf("ParseServer(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestNewDefaultsToNoop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	refresher, err := library.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if refresher.Server() != library.ServerNone {
		t.Fatalf("expected noop refresher, got %q", refresher.Server())
	}
	if err := refresher.Refresh(context.Background(), library.KindMovie); err != nil {
		t.Fatalf("noop refresh returned %v", err)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := library.NewWithClient(library.ServerPlex, "", "token", http.DefaultClient); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestPlexRefreshTargetsMatchingSections(t *testing.T) {
	var (
		mu           sync.Mutex
		sectionCalls int
		refreshed    []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Plex-Token") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch r.URL.Path {
		case "/library/sections":
			sectionCalls++
			_, _ = w.Write([]byte(`<MediaContainer>
				<Directory key="1" type="movie" title="Films"/>
				<Directory key="2" type="show" title="Series"/>
				<Directory key="3" type="movie" title="Kids Films"/>
			</MediaContainer>`))
		default:
			refreshed = append(refreshed, r.URL.Path)
		}
	}))
	t.Cleanup(server.Close)

	refresher, err := library.NewWithClient(library.ServerPlex, server.URL+"/", "secret", server.Client())
	if err != nil {
		t.Fatalf("NewWithClient: %v", err)
	}
	ctx := context.Background()
	if err := refresher.Refresh(ctx, library.KindMovie); err != nil {
		t.Fatalf("Refresh movie: %v", err)
	}
	if err := refresher.Refresh(ctx, library.KindShow); err != nil {
		t.Fatalf("Refresh show: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if sectionCalls != 1 {
		t.Fatalf("expected sections to be fetched once, got %d", sectionCalls)
	}
	want := []string{"/library/sections/1/refresh", "/library/sections/3/refresh", "/library/sections/2/refresh"}
	if len(refreshed) != len(want) {
		t.Fatalf("refreshed = %v, want %v", refreshed, want)
	}
	for i := range want {
		if refreshed[i] != want[i] {
			t.Fatalf("refreshed = %v, want %v", refreshed, want)
		}
	}
}

func TestPlexRefreshWithoutMatchingSection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<MediaContainer><Directory key="1" type="artist"/></MediaContainer>`))
	}))
	t.Cleanup(server.Close)

	refresher, _ := library.NewWithClient(library.ServerPlex, server.URL, "secret", server.Client())
	if err := refresher.Refresh(context.Background(), library.KindMovie); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestJellyfinRefresh(t *testing.T) {
	var gotToken, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Emby-Token")
		gotMethod = r.Method
		if r.URL.Path != "/Library/Refresh" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	refresher, err := library.NewWithClient(library.ServerJellyfin, server.URL, "api-key", server.Client())
	if err != nil {
		t.Fatalf("NewWithClient: %v", err)
	}
	if err := refresher.Refresh(context.Background(), library.KindShow); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if gotToken != "api-key" || gotMethod != http.MethodPost {
		t.Fatalf("unexpected request: token=%q method=%q", gotToken, gotMethod)
	}
}

func TestJellyfinRefreshRejectedToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	refresher, _ := library.NewWithClient(library.ServerJellyfin, server.URL, "bad", server.Client())
	if err := refresher.Refresh(context.Background(), library.KindMovie); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
