package preflight

import (
	"context"

	"animesync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckStore(ctx, cfg),
		CheckShikimori(ctx, cfg.Shikimori.BaseURL, cfg.Shikimori.UserAgent, cfg.RequestTimeout()),
	}
	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, Result{Name: "Notifications", Passed: true, Detail: cfg.Notifications.NtfyTopic})
	}
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return true
		}
	}
	return false
}
