package preflight

import (
	"context"

	"videodrome/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Ingest directory", cfg.Paths.IngestDir),
		CheckDirectoryAccess("Media root", cfg.Paths.MediaRoot),
		CheckFreeSpace("Media root free space", cfg.Paths.MediaRoot, MinFreeBytes),
		CheckTMDB(ctx, cfg),
	}

	if cfg.Transmission.Enabled {
		results = append(results, CheckTransmission(ctx, cfg))
	}
	return results
}

// Failed returns the subset of results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
