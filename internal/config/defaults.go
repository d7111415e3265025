package config

const (
	defaultConfigPath            = "~/.config/videodrome/config.toml"
	defaultIngestDir             = "~/videodrome/inbox"
	defaultMediaRoot             = "~/media"
	defaultStateDir              = "~/.local/share/videodrome"
	defaultLogDir                = "~/.local/share/videodrome/logs"
	defaultLogRetentionDays      = 30
	defaultAPIBind               = "127.0.0.1:7490"
	defaultTMDBLanguage          = "en-US"
	defaultTMDBBaseURL           = "https://api.themoviedb.org/3"
	defaultTMDBRequestsPerSecond = 4.0
	defaultParser                = "rls"
	defaultBatchConcurrency      = 4
	defaultCacheTTLHours         = 168
	defaultMoviesDir             = "Movies"
	defaultTVDir                 = "TV Shows"
	defaultOperation             = "copy"
	defaultLibraryServer         = "none"
	defaultConfidenceThreshold   = 0.85
	defaultStabilitySeconds      = 60
	defaultCheckIntervalSeconds  = 10
	defaultTransmissionURL       = "http://127.0.0.1:9091/transmission/rpc"
	defaultTransmissionPoll      = 30
	defaultNotifyRequestTimeout  = 10
	defaultReconcileSchedule     = "@every 15m"
	defaultOrphanAfterMinutes    = 60
	defaultCachePurgeSchedule    = "@daily"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// DefaultVideoExtensions lists the file extensions treated as media by the
// watcher and the torrent poller.
func DefaultVideoExtensions() []string {
	return []string{".mkv", ".mp4", ".avi", ".m4v", ".mov", ".wmv"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			IngestDir: defaultIngestDir,
			MediaRoot: defaultMediaRoot,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		TMDB: TMDB{
			Language:          defaultTMDBLanguage,
			BaseURL:           defaultTMDBBaseURL,
			RequestsPerSecond: defaultTMDBRequestsPerSecond,
		},
		Matcher: Matcher{
			Parser:           defaultParser,
			BatchConcurrency: defaultBatchConcurrency,
			CacheTTLHours:    defaultCacheTTLHours,
		},
		Library: Library{
			MoviesDir: defaultMoviesDir,
			TVDir:     defaultTVDir,
			Operation: defaultOperation,
			Server:    defaultLibraryServer,
		},
		Watcher: Watcher{
			ConfidenceThreshold:  defaultConfidenceThreshold,
			StabilitySeconds:     defaultStabilitySeconds,
			CheckIntervalSeconds: defaultCheckIntervalSeconds,
			VideoExtensions:      DefaultVideoExtensions(),
		},
		Transmission: Transmission{
			URL:          defaultTransmissionURL,
			PollInterval: defaultTransmissionPoll,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Ingest:         true,
			Review:         true,
			Errors:         true,
		},
		Maintenance: Maintenance{
			ReconcileSchedule:  defaultReconcileSchedule,
			OrphanAfterMinutes: defaultOrphanAfterMinutes,
			CachePurgeSchedule: defaultCachePurgeSchedule,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
