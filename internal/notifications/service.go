package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"videodrome/internal/config"
)

const userAgent = "Videodrome-Go/0.1.0"

// Event enumerates the notifications the pipeline can emit.
type Event string

const (
	EventIngested         Event = "ingested"
	EventQueuedForReview  Event = "queued_for_review"
	EventIngestFailed     Event = "ingest_failed"
	EventTorrentProcessed Event = "torrent_processed"
	EventError            Event = "error"
	EventTest             Event = "test"
)

// Payload carries event fields. Keys are event specific.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled: map[Event]bool{
			EventIngested:         cfg.Notifications.Ingest,
			EventTorrentProcessed: cfg.Notifications.Ingest,
			EventQueuedForReview:  cfg.Notifications.Review,
			EventIngestFailed:     cfg.Notifications.Errors,
			EventError:            cfg.Notifications.Errors,
			EventTest:             true,
		},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || !n.enabled[event] {
		return nil
	}
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventIngested:
		body := "Added to library: " + payload.text("title", "unknown")
		if dest := payload.text("destination", ""); dest != "" {
			body += "\nFile: " + dest
		}
		return message{
			title: "Videodrome - Ingested",
			body:  body,
			tags:  []string{"videodrome", "ingest", payload.text("kind", "media")},
		}, true
	case EventQueuedForReview:
		return message{
			title: "Videodrome - Review Needed",
			body: fmt.Sprintf("%s matched %s (confidence %.2f)\nApprove or reject in the pending queue",
				payload.text("filename", "file"), payload.text("title", "unknown"), payload.float("confidence")),
			tags: []string{"videodrome", "review", "pending"},
		}, true
	case EventIngestFailed:
		return message{
			title:    "Videodrome - Ingest Failed",
			body:     fmt.Sprintf("Could not ingest %s: %s", payload.text("source", "file"), payload.text("error", "unknown error")),
			tags:     []string{"videodrome", "ingest", "failed"},
			priority: "high",
		}, true
	case EventTorrentProcessed:
		return message{
			title: "Videodrome - Torrent Processed",
			body: fmt.Sprintf("%s: %d ingested, %d queued, %d duplicate, %d unmatched",
				payload.text("name", "torrent"), payload.int("ingested"), payload.int("queued"),
				payload.int("duplicate"), payload.int("unmatched")),
			tags: []string{"videodrome", "torrent", "completed"},
		}, true
	case EventError:
		body := "Error"
		if label := payload.text("context", ""); label != "" {
			body += " with " + label
		}
		return message{
			title:    "Videodrome - Error",
			body:     body + ": " + payload.text("error", "unknown"),
			tags:     []string{"videodrome", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Videodrome - Test",
			body:     "Notification system test",
			tags:     []string{"videodrome", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (p Payload) text(key, fallback string) string {
	if value, ok := p[key]; ok && value != nil {
		if s := strings.TrimSpace(fmt.Sprint(value)); s != "" {
			return s
		}
	}
	return fallback
}

func (p Payload) float(key string) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (p Payload) int(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
