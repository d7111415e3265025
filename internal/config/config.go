package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	IngestDir string `toml:"ingest_dir"`
	MediaRoot string `toml:"media_root"`
	StateDir  string `toml:"state_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
	APIToken  string `toml:"api_token"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	Language          string  `toml:"language"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Matcher contains filename parsing and catalog lookup settings.
type Matcher struct {
	Parser           string `toml:"parser"`
	BatchConcurrency int    `toml:"batch_concurrency"`
	CacheTTLHours    int    `toml:"cache_ttl_hours"`
}

// Library contains configuration for the media library layout and the media
// server that should be refreshed after a file lands in it.
type Library struct {
	MoviesDir string `toml:"movies_dir"`
	TVDir     string `toml:"tv_dir"`
	Operation string `toml:"operation"`
	Server    string `toml:"server"`
	URL       string `toml:"url"`
	Token     string `toml:"token"`
}

// Watcher contains the inbound directory policy.
type Watcher struct {
	AutoStart            bool     `toml:"auto_start"`
	AutoIngest           bool     `toml:"auto_ingest"`
	ConfidenceThreshold  float64  `toml:"confidence_threshold"`
	StabilitySeconds     int      `toml:"stability_seconds"`
	CheckIntervalSeconds int      `toml:"check_interval_seconds"`
	VideoExtensions      []string `toml:"video_extensions"`
}

// Transmission contains configuration for the torrent completion poller.
type Transmission struct {
	Enabled      bool   `toml:"enabled"`
	URL          string `toml:"url"`
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	PollInterval int    `toml:"poll_interval"`
	AutoRemove   bool   `toml:"auto_remove"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Ingest         bool   `toml:"ingest"`
	Review         bool   `toml:"review"`
	Errors         bool   `toml:"errors"`
}

// Maintenance contains schedules for background housekeeping.
type Maintenance struct {
	ReconcileSchedule  string `toml:"reconcile_schedule"`
	OrphanAfterMinutes int    `toml:"orphan_after_minutes"`
	CachePurgeSchedule string `toml:"cache_purge_schedule"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Videodrome.
//
// Configuration sections by subsystem:
//   - Paths: inbound/library directories, state, and API bind address
//   - TMDB: catalog lookups via The Movie Database
//   - Matcher: filename parser engine, batch concurrency, search cache
//   - Library: library layout, ingest operation, media server refresh
//   - Watcher: auto-ingest policy and stability window
//   - Transmission: torrent completion polling
//   - Notifications: ntfy push notification settings
//   - Maintenance: orphan reconciliation and cache purge schedules
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	TMDB          TMDB          `toml:"tmdb"`
	Matcher       Matcher       `toml:"matcher"`
	Library       Library       `toml:"library"`
	Watcher       Watcher       `toml:"watcher"`
	Transmission  Transmission  `toml:"transmission"`
	Notifications Notifications `toml:"notifications"`
	Maintenance   Maintenance   `toml:"maintenance"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file next to the default config
// location is loaded first; variables already present in the environment win.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(resolvedPath); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("videodrome.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// loadDotEnv reads KEY=value pairs from the .env file beside the resolved
// config, falling back to the default config directory.
func loadDotEnv(configPath string) error {
	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	if defaultPath, err := expandPath(defaultConfigPath); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(defaultPath), ".env"))
	}
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(candidate); err != nil {
			return fmt.Errorf("load env file %s: %w", candidate, err)
		}
	}
	return nil
}

// EnsureDirectories creates required directories for daemon operation.
// MediaRoot is created on a best-effort basis so the daemon can run when
// network storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.IngestDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.MediaRoot) != "" {
		_ = os.MkdirAll(c.Paths.MediaRoot, 0o755)
	}
	return nil
}

// DatabasePath returns the location of the ingest history database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "videodrome.db")
}

// SocketPath returns the daemon IPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "videodrome.sock")
}

// StabilityWindow returns the watcher stability window as a duration.
func (c *Config) StabilityWindow() time.Duration {
	return time.Duration(c.Watcher.StabilitySeconds) * time.Second
}

// CheckInterval returns how often tracked files are checked for stability.
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Watcher.CheckIntervalSeconds) * time.Second
}

// PollInterval returns the torrent completion poll interval.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Transmission.PollInterval) * time.Second
}

// CacheTTL returns how long catalog search results stay cached.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Matcher.CacheTTLHours) * time.Hour
}

// OrphanAfter returns the age after which a pending history record is
// considered abandoned.
func (c *Config) OrphanAfter() time.Duration {
	return time.Duration(c.Maintenance.OrphanAfterMinutes) * time.Minute
}

// IsVideoExtension reports whether ext (with leading dot, any case) is one of
// the configured video extensions.
func (c *Config) IsVideoExtension(ext string) bool {
	ext = strings.ToLower(strings.TrimSpace(ext))
	for _, candidate := range c.Watcher.VideoExtensions {
		if candidate == ext {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

const redactedValue = "********"

// Redacted returns a copy with API keys, tokens and passwords masked. Empty
// secrets stay empty so "not configured" remains visible.
func (c Config) Redacted() Config {
	mask := func(value string) string {
		if strings.TrimSpace(value) == "" {
			return value
		}
		return redactedValue
	}
	c.TMDB.APIKey = mask(c.TMDB.APIKey)
	c.Paths.APIToken = mask(c.Paths.APIToken)
	c.Library.Token = mask(c.Library.Token)
	c.Transmission.Password = mask(c.Transmission.Password)
	c.Watcher.VideoExtensions = append([]string(nil), c.Watcher.VideoExtensions...)
	return c
}

// EncodeTOML renders the effective configuration in config-file form.
func (c Config) EncodeTOML() ([]byte, error) {
	return toml.Marshal(c)
}
