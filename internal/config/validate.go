package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateMatcher(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateWatcher(); err != nil {
		return err
	}
	if err := c.validateTransmission(); err != nil {
		return err
	}
	if err := c.validateMaintenance(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.IngestDir) == "" {
		return errors.New("paths.ingest_dir must be set")
	}
	if strings.TrimSpace(c.Paths.MediaRoot) == "" {
		return errors.New("paths.media_root must be set")
	}
	if c.Paths.IngestDir == c.Paths.MediaRoot {
		return errors.New("paths.ingest_dir and paths.media_root must differ")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'videodrome config init')", defaultPath)
	}
	if _, err := url.ParseRequestURI(c.TMDB.BaseURL); err != nil {
		return fmt.Errorf("tmdb.base_url is invalid: %w", err)
	}
	return nil
}

func (c *Config) validateMatcher() error {
	switch c.Matcher.Parser {
	case "rls", "ptn":
	default:
		return fmt.Errorf("matcher.parser must be one of rls, ptn (got %q)", c.Matcher.Parser)
	}
	return ensurePositiveMap(map[string]int{
		"matcher.batch_concurrency": c.Matcher.BatchConcurrency,
		"matcher.cache_ttl_hours":   c.Matcher.CacheTTLHours,
	})
}

func (c *Config) validateLibrary() error {
	if c.Library.MoviesDir == "" {
		return errors.New("library.movies_dir must be set")
	}
	if c.Library.TVDir == "" {
		return errors.New("library.tv_dir must be set")
	}
	switch c.Library.Operation {
	case "copy", "move":
	default:
		return fmt.Errorf("library.operation must be copy or move (got %q)", c.Library.Operation)
	}
	switch c.Library.Server {
	case "none":
		return nil
	case "plex", "jellyfin":
	default:
		return fmt.Errorf("library.server must be one of none, plex, jellyfin (got %q)", c.Library.Server)
	}
	if c.Library.URL == "" {
		return fmt.Errorf("library.url must be set when library.server is %s", c.Library.Server)
	}
	if c.Library.Token == "" {
		return fmt.Errorf("library.token must be set when library.server is %s", c.Library.Server)
	}
	return nil
}

func (c *Config) validateWatcher() error {
	if c.Watcher.ConfidenceThreshold < 0 || c.Watcher.ConfidenceThreshold > 1 {
		return errors.New("watcher.confidence_threshold must be between 0 and 1")
	}
	return ensurePositiveMap(map[string]int{
		"watcher.stability_seconds":      c.Watcher.StabilitySeconds,
		"watcher.check_interval_seconds": c.Watcher.CheckIntervalSeconds,
	})
}

func (c *Config) validateTransmission() error {
	if !c.Transmission.Enabled {
		return nil
	}
	parsed, err := url.Parse(c.Transmission.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("transmission.url must be an absolute URL when transmission.enabled is true (got %q)", c.Transmission.URL)
	}
	if c.Transmission.PollInterval <= 0 {
		return errors.New("transmission.poll_interval must be positive")
	}
	return nil
}

func (c *Config) validateMaintenance() error {
	if _, err := cron.ParseStandard(c.Maintenance.ReconcileSchedule); err != nil {
		return fmt.Errorf("maintenance.reconcile_schedule: %w", err)
	}
	if _, err := cron.ParseStandard(c.Maintenance.CachePurgeSchedule); err != nil {
		return fmt.Errorf("maintenance.cache_purge_schedule: %w", err)
	}
	return ensurePositiveMap(map[string]int{
		"maintenance.orphan_after_minutes": c.Maintenance.OrphanAfterMinutes,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
