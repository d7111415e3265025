package notifications_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"videodrome/internal/config"
	"videodrome/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventIngested, notifications.Payload{"title": "Example"}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "ingested",
			event: notifications.EventIngested,
			payload: notifications.Payload{
				"title":       "Inception (2010)",
				"destination": "/media/Movies/Inception (2010) {catalog-27205}/Inception (2010) {catalog-27205}.mkv",
				"kind":        "movie",
			},
			expectTitle:   "Videodrome - Ingested",
			expectMessage: "Added to library: Inception (2010)\nFile: /media/Movies/Inception (2010) {catalog-27205}/Inception (2010) {catalog-27205}.mkv",
			expectTags:    "videodrome,ingest,movie",
		},
		{
			name:  "queued",
			event: notifications.EventQueuedForReview,
			payload: notifications.Payload{
				"filename":   "heat.1995.mkv",
				"title":      "Heat",
				"confidence": 0.625,
			},
			expectTitle:   "Videodrome - Review Needed",
			expectMessage: "heat.1995.mkv matched Heat (confidence 0.62)\nApprove or reject in the pending queue",
			expectTags:    "videodrome,review,pending",
		},
		{
			name:  "ingest failed",
			event: notifications.EventIngestFailed,
			payload: notifications.Payload{
				"source": "/ingest/a.txt",
				"error":  "invalid_extension",
			},
			expectTitle:    "Videodrome - Ingest Failed",
			expectMessage:  "Could not ingest /ingest/a.txt: invalid_extension",
			expectTags:     "videodrome,ingest,failed",
			expectPriority: "high",
		},
		{
			name:  "torrent processed",
			event: notifications.EventTorrentProcessed,
			payload: notifications.Payload{
				"name":      "Show.S01.1080p",
				"ingested":  3,
				"queued":    1,
				"duplicate": 0,
				"unmatched": 2,
			},
			expectTitle:   "Videodrome - Torrent Processed",
			expectMessage: "Show.S01.1080p: 3 ingested, 1 queued, 0 duplicate, 2 unmatched",
			expectTags:    "videodrome,torrent,completed",
		},
		{
			name:  "error",
			event: notifications.EventError,
			payload: notifications.Payload{
				"context": "watcher",
				"error":   "ingest dir vanished",
			},
			expectTitle:    "Videodrome - Error",
			expectMessage:  "Error with watcher: ingest dir vanished",
			expectTags:     "videodrome,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeout = 5
			cfg.Notifications.Ingest = true
			cfg.Notifications.Review = true
			cfg.Notifications.Errors = true

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceHonoursMutedFamilies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected call for muted event: %s", r.Header.Get("Title"))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Ingest = false
	cfg.Notifications.Review = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	muted := []notifications.Event{
		notifications.EventIngested,
		notifications.EventTorrentProcessed,
		notifications.EventQueuedForReview,
		notifications.EventIngestFailed,
		notifications.EventError,
		notifications.Event("unknown"),
	}
	for _, event := range muted {
		if err := svc.Publish(context.Background(), event, notifications.Payload{"value": "ignored"}); err != nil {
			t.Fatalf("expected no error for muted event %s, got %v", event, err)
		}
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic closed", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
