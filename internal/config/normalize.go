package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeMatcher()
	c.normalizeLibrary()
	c.normalizeWatcher()
	c.normalizeTransmission()
	c.normalizeNotifications()
	c.normalizeMaintenance()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := lookupEnv("VIDEODROME_INGEST_DIR", "PLEX_INGEST_DIR"); ok {
		c.Paths.IngestDir = value
	}
	if value, ok := lookupEnv("VIDEODROME_MEDIA_ROOT", "PLEX_MEDIA_ROOT"); ok {
		c.Paths.MediaRoot = value
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	var err error
	if c.Paths.IngestDir, err = expandPath(strings.TrimSpace(c.Paths.IngestDir)); err != nil {
		return fmt.Errorf("paths.ingest_dir: %w", err)
	}
	if c.Paths.MediaRoot, err = expandPath(strings.TrimSpace(c.Paths.MediaRoot)); err != nil {
		return fmt.Errorf("paths.media_root: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(strings.TrimSpace(c.Paths.StateDir)); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if value, ok := lookupEnv("VIDEODROME_API_TOKEN"); ok {
		c.Paths.APIToken = value
	}
	return nil
}

func (c *Config) normalizeTMDB() {
	if value, ok := lookupEnv("VIDEODROME_TMDB_API_KEY", "TMDB_API_KEY"); ok {
		c.TMDB.APIKey = value
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	if c.TMDB.RequestsPerSecond <= 0 {
		c.TMDB.RequestsPerSecond = defaultTMDBRequestsPerSecond
	}
}

func (c *Config) normalizeMatcher() {
	c.Matcher.Parser = strings.ToLower(strings.TrimSpace(c.Matcher.Parser))
	if c.Matcher.Parser == "" {
		c.Matcher.Parser = defaultParser
	}
	if c.Matcher.BatchConcurrency <= 0 {
		c.Matcher.BatchConcurrency = defaultBatchConcurrency
	}
	if c.Matcher.CacheTTLHours <= 0 {
		c.Matcher.CacheTTLHours = defaultCacheTTLHours
	}
}

func (c *Config) normalizeLibrary() {
	c.Library.MoviesDir = strings.TrimSpace(c.Library.MoviesDir)
	c.Library.TVDir = strings.TrimSpace(c.Library.TVDir)
	c.Library.Operation = strings.ToLower(strings.TrimSpace(c.Library.Operation))
	if c.Library.Operation == "" {
		c.Library.Operation = defaultOperation
	}
	c.Library.Server = strings.ToLower(strings.TrimSpace(c.Library.Server))
	if c.Library.Server == "" {
		c.Library.Server = defaultLibraryServer
	}
	url, urlOK := lookupEnv("VIDEODROME_PLEX_URL", "PLEX_URL")
	token, tokenOK := lookupEnv("VIDEODROME_PLEX_TOKEN", "PLEX_TOKEN")
	if urlOK && tokenOK && (c.Library.Server == "none" || c.Library.Server == "plex") {
		c.Library.Server = "plex"
		c.Library.URL = url
		c.Library.Token = token
	}
	c.Library.URL = strings.TrimRight(strings.TrimSpace(c.Library.URL), "/")
	c.Library.Token = strings.TrimSpace(c.Library.Token)
}

func (c *Config) normalizeWatcher() {
	if value, ok := lookupEnv("VIDEODROME_AUTO_INGEST", "PLEX_AUTO_INGEST"); ok {
		c.Watcher.AutoIngest = parseBool(value, c.Watcher.AutoIngest)
	}
	if value, ok := lookupEnv("VIDEODROME_WATCHER_AUTO_START", "PLEX_WATCHER_AUTO_START"); ok {
		c.Watcher.AutoStart = parseBool(value, c.Watcher.AutoStart)
	}
	if value, ok := lookupEnv("VIDEODROME_CONFIDENCE_THRESHOLD", "PLEX_CONFIDENCE_THRESHOLD"); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			c.Watcher.ConfidenceThreshold = parsed
		}
	}
	if c.Watcher.CheckIntervalSeconds <= 0 {
		c.Watcher.CheckIntervalSeconds = defaultCheckIntervalSeconds
	}
	exts := make([]string, 0, len(c.Watcher.VideoExtensions))
	seen := make(map[string]struct{}, len(c.Watcher.VideoExtensions))
	for _, ext := range c.Watcher.VideoExtensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = DefaultVideoExtensions()
	}
	c.Watcher.VideoExtensions = exts
}

func (c *Config) normalizeTransmission() {
	if value, ok := lookupEnv("TRANSMISSION_URL"); ok {
		c.Transmission.URL = value
		c.Transmission.Enabled = true
	}
	if value, ok := lookupEnv("TRANSMISSION_USERNAME", "TRANSMISSION_USER"); ok {
		c.Transmission.Username = value
	}
	if value, ok := lookupEnv("TRANSMISSION_PASSWORD"); ok {
		c.Transmission.Password = value
	}
	if value, ok := lookupEnv("TRANSMISSION_POLL_INTERVAL"); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			c.Transmission.PollInterval = parsed
		}
	}
	if value, ok := lookupEnv("TRANSMISSION_AUTO_REMOVE"); ok {
		c.Transmission.AutoRemove = parseBool(value, c.Transmission.AutoRemove)
	}
	c.Transmission.URL = strings.TrimSpace(c.Transmission.URL)
	if c.Transmission.URL == "" {
		c.Transmission.URL = defaultTransmissionURL
	}
	if c.Transmission.PollInterval <= 0 {
		c.Transmission.PollInterval = defaultTransmissionPoll
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if value, ok := lookupEnv("VIDEODROME_NTFY_TOPIC"); ok {
		c.Notifications.NtfyTopic = value
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeMaintenance() {
	c.Maintenance.ReconcileSchedule = strings.TrimSpace(c.Maintenance.ReconcileSchedule)
	if c.Maintenance.ReconcileSchedule == "" {
		c.Maintenance.ReconcileSchedule = defaultReconcileSchedule
	}
	c.Maintenance.CachePurgeSchedule = strings.TrimSpace(c.Maintenance.CachePurgeSchedule)
	if c.Maintenance.CachePurgeSchedule == "" {
		c.Maintenance.CachePurgeSchedule = defaultCachePurgeSchedule
	}
	if c.Maintenance.OrphanAfterMinutes <= 0 {
		c.Maintenance.OrphanAfterMinutes = defaultOrphanAfterMinutes
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// lookupEnv returns the first non-empty value among keys.
func lookupEnv(keys ...string) (string, bool) {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed, true
			}
		}
	}
	return "", false
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
