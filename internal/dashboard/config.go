package dashboard

import (
	"github.com/sdibella/deriv-dashboard/internal/config"
)

// Config holds configuration for the dashboard HTTP server.
type Config struct {
	LogsURL     string // bot log download link, served as a redirect
	JournalDir  string // directory of journal JSONL files; empty disables the listing
	RefreshRate int    // seconds between page polls of /api/view
}

// DefaultConfig returns dashboard configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{RefreshRate: 1}
}

// ConfigFrom derives the server configuration from the process config.
func ConfigFrom(cfg *config.Config, logsURL string) Config {
	c := DefaultConfig()
	c.LogsURL = logsURL
	if cfg.JournalEnabled {
		c.JournalDir = cfg.JournalDir
	}
	return c
}
