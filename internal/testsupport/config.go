package testsupport

import (
	"path/filepath"
	"testing"

	"videodrome/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The ingest, media, state and log directories all live under one temp root
// and are created.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.TMDB.APIKey = "test"
	cfgVal.Paths.IngestDir = filepath.Join(base, "ingest")
	cfgVal.Paths.MediaRoot = filepath.Join(base, "media")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithTMDBKey sets the TMDB API key on the test config.
func WithTMDBKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.APIKey = key
	}
}

// WithAutoIngest enables auto-ingest at the given threshold.
func WithAutoIngest(threshold float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watcher.AutoIngest = true
		b.cfg.Watcher.ConfidenceThreshold = threshold
	}
}

// WithOperation selects copy or move for ingests.
func WithOperation(operation string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Library.Operation = operation
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.IngestDir)
}
