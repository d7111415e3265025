package library

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"videodrome/internal/config"
	"videodrome/internal/services"
)

// Server identifies the media server to notify.
type Server string

const (
	ServerNone     Server = "none"
	ServerPlex     Server = "plex"
	ServerJellyfin Server = "jellyfin"
)

// MediaKind selects which libraries a refresh targets.
type MediaKind string

const (
	KindMovie MediaKind = "movie"
	KindShow  MediaKind = "tv"
)

// ParseServer resolves a configured server name.
func ParseServer(value string) (Server, error) {
	switch Server(strings.ToLower(strings.TrimSpace(value))) {
	case "", ServerNone:
		return ServerNone, nil
	case ServerPlex:
		return ServerPlex, nil
	case ServerJellyfin:
		return ServerJellyfin, nil
	default:
		return "", services.Wrap(services.ErrConfiguration, "library", "parse server",
			fmt.Sprintf("unsupported library.server %q (want none, plex or jellyfin)", value), nil)
	}
}

// Refresher triggers a media server rescan.
type Refresher interface {
	Server() Server
	Refresh(ctx context.Context, kind MediaKind) error
}

// HTTPDoer describes the HTTP client used by the refreshers.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// New builds the refresher configured in cfg.Library.
func New(cfg *config.Config) (Refresher, error) {
	if cfg == nil {
		return noopRefresher{}, nil
	}
	server, err := ParseServer(cfg.Library.Server)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return NewWithClient(server, cfg.Library.URL, cfg.Library.Token, client)
}

// NewWithClient builds a refresher for server using the given HTTP client.
func NewWithClient(server Server, baseURL, token string, client HTTPDoer) (Refresher, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	token = strings.TrimSpace(token)
	switch server {
	case ServerNone:
		return noopRefresher{}, nil
	case ServerPlex, ServerJellyfin:
		if baseURL == "" || token == "" {
			return nil, services.Wrap(services.ErrConfiguration, "library", "configure "+string(server),
				"library.url and library.token are required", nil)
		}
		if server == ServerPlex {
			return &plexRefresher{baseURL: baseURL, token: token, client: client}, nil
		}
		return &jellyfinRefresher{baseURL: baseURL, token: token, client: client}, nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "library", "configure", fmt.Sprintf("unsupported server %q", server), nil)
	}
}

type noopRefresher struct{}

func (noopRefresher) Server() Server { return ServerNone }

func (noopRefresher) Refresh(context.Context, MediaKind) error { return nil }
