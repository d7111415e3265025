package torrent

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/hekmon/transmissionrpc/v3"

	"videodrome/internal/config"
	"videodrome/internal/services"
)

const userAgent = "Videodrome-Go/0.1.0"

// File is one payload file of a torrent.
type File struct {
	Name   string
	Length int64
}

// Torrent is the completed-torrent view consumed by the poller.
type Torrent struct {
	ID          int64
	Hash        string
	Name        string
	DownloadDir string
	PercentDone float64
	Files       []File
}

// FilePath resolves a payload file to its absolute location on disk.
func (t Torrent) FilePath(f File) string {
	return filepath.Join(t.DownloadDir, filepath.FromSlash(f.Name))
}

// Client lists completed torrents and removes them.
type Client interface {
	ListCompleted(ctx context.Context) ([]Torrent, error)
	Remove(ctx context.Context, id int64) error
}

// RPC is the subset of transmissionrpc.Client used here.
type RPC interface {
	TorrentGet(ctx context.Context, fields []string, ids []int64) ([]transmissionrpc.Torrent, error)
	TorrentRemove(ctx context.Context, payload transmissionrpc.TorrentRemovePayload) error
	RPCVersion(ctx context.Context) (ok bool, serverVersion int64, serverMinimumVersion int64, err error)
}

var listFields = []string{"id", "hashString", "name", "downloadDir", "percentDone", "files"}

// TransmissionClient talks to a Transmission daemon.
type TransmissionClient struct {
	rpc      RPC
	endpoint string
}

// New builds a client from the [transmission] configuration section.
// Credentials are carried in the endpoint URL as Transmission expects.
func New(cfg config.Transmission) (*TransmissionClient, error) {
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		return nil, services.Wrap(services.ErrConfiguration, "torrent", "new client", "transmission url is empty", nil)
	}
	endpoint, err := url.Parse(raw)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "torrent", "new client", "parse transmission url", err)
	}
	if cfg.Username != "" {
		endpoint.User = url.UserPassword(cfg.Username, cfg.Password)
	}
	rpc, err := transmissionrpc.New(endpoint, &transmissionrpc.Config{
		UserAgent:    userAgent,
		CustomClient: &http.Client{Timeout: 30 * time.Second},
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "torrent", "new client", "init transmission rpc", err)
	}
	return NewWithRPC(rpc, endpoint.Redacted()), nil
}

// NewWithRPC wraps an existing RPC implementation.
func NewWithRPC(rpc RPC, endpoint string) *TransmissionClient {
	return &TransmissionClient{rpc: rpc, endpoint: endpoint}
}

// Endpoint returns the RPC URL with credentials redacted.
func (c *TransmissionClient) Endpoint() string {
	return c.endpoint
}

// ListCompleted returns every torrent whose download reached 100%.
func (c *TransmissionClient) ListCompleted(ctx context.Context) ([]Torrent, error) {
	raw, err := c.rpc.TorrentGet(ctx, listFields, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "torrent", "list", "transmission torrent-get failed", err)
	}
	completed := make([]Torrent, 0, len(raw))
	for _, item := range raw {
		t := convert(item)
		if t.PercentDone < 1 {
			continue
		}
		completed = append(completed, t)
	}
	return completed, nil
}

// Remove drops the torrent from Transmission. Downloaded data is never deleted.
func (c *TransmissionClient) Remove(ctx context.Context, id int64) error {
	err := c.rpc.TorrentRemove(ctx, transmissionrpc.TorrentRemovePayload{
		IDs:             []int64{id},
		DeleteLocalData: false,
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "torrent", "remove", fmt.Sprintf("torrent %d", id), err)
	}
	return nil
}

// Ping verifies the daemon is reachable and speaks a compatible RPC version.
func (c *TransmissionClient) Ping(ctx context.Context) error {
	ok, version, minimum, err := c.rpc.RPCVersion(ctx)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "torrent", "ping", "transmission unreachable", err)
	}
	if !ok {
		return services.Wrap(services.ErrConfiguration, "torrent", "ping",
			fmt.Sprintf("incompatible rpc version %d (minimum %d)", version, minimum), nil)
	}
	return nil
}

func convert(item transmissionrpc.Torrent) Torrent {
	var t Torrent
	if item.ID != nil {
		t.ID = *item.ID
	}
	if item.HashString != nil {
		t.Hash = *item.HashString
	}
	if item.Name != nil {
		t.Name = *item.Name
	}
	if item.DownloadDir != nil {
		t.DownloadDir = *item.DownloadDir
	}
	if item.PercentDone != nil {
		t.PercentDone = *item.PercentDone
	}
	t.Files = make([]File, 0, len(item.Files))
	for _, f := range item.Files {
		t.Files = append(t.Files, File{Name: f.Name, Length: f.Length})
	}
	return t
}
