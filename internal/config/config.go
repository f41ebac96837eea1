package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bot backend
	BotAPIURL   string        `yaml:"bot_api_url"`
	BotWSURL    string        `yaml:"bot_ws_url"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	// Dashboard
	DashboardHost string `yaml:"dashboard_host"`
	DashboardPort int    `yaml:"dashboard_port"`

	// Journal
	JournalEnabled bool   `yaml:"journal_enabled"`
	JournalDir     string `yaml:"journal_dir"`

	InboxSize int    `yaml:"inbox_size"`
	LogLevel  string `yaml:"log_level"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		BotAPIURL:      "http://localhost:5000",
		HTTPTimeout:    10 * time.Second,
		DashboardHost:  "localhost",
		DashboardPort:  8080,
		JournalEnabled: false,
		JournalDir:     ".",
		InboxSize:      256,
		LogLevel:       "info",
	}
}

// Load reads .env, then the optional YAML file named by DASHBOARD_CONFIG, then
// environment overrides, and validates the result.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("DASHBOARD_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.BotAPIURL = getEnvDefault("BOT_API_URL", cfg.BotAPIURL)
	cfg.BotWSURL = getEnvDefault("BOT_WS_URL", cfg.BotWSURL)
	cfg.HTTPTimeout = getEnvDuration("HTTP_TIMEOUT", cfg.HTTPTimeout)
	cfg.DashboardHost = getEnvDefault("DASHBOARD_HOST", cfg.DashboardHost)
	cfg.DashboardPort = getEnvInt("DASHBOARD_PORT", cfg.DashboardPort)
	cfg.JournalEnabled = getEnvBool("JOURNAL_ENABLED", cfg.JournalEnabled)
	cfg.JournalDir = getEnvDefault("DASHBOARD_JOURNAL_DIR", cfg.JournalDir)
	cfg.InboxSize = getEnvInt("INBOX_SIZE", cfg.InboxSize)
	cfg.LogLevel = getEnvDefault("LOG_LEVEL", cfg.LogLevel)

	if cfg.BotWSURL == "" {
		ws, err := DeriveWSURL(cfg.BotAPIURL)
		if err != nil {
			return nil, err
		}
		cfg.BotWSURL = ws
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Validate checks the settings that would otherwise fail later at startup.
func (c *Config) Validate() error {
	u, err := url.Parse(c.BotAPIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BOT_API_URL must be an http(s) URL, got %q", c.BotAPIURL)
	}
	w, err := url.Parse(c.BotWSURL)
	if err != nil || (w.Scheme != "ws" && w.Scheme != "wss") || w.Host == "" {
		return fmt.Errorf("BOT_WS_URL must be a ws(s) URL, got %q", c.BotWSURL)
	}
	if c.DashboardPort <= 0 || c.DashboardPort > 65535 {
		return fmt.Errorf("DASHBOARD_PORT out of range: %d", c.DashboardPort)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	if c.InboxSize <= 0 {
		return fmt.Errorf("INBOX_SIZE must be positive, got %d", c.InboxSize)
	}
	return nil
}

// Addr is the dashboard listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.DashboardHost, strconv.Itoa(c.DashboardPort))
}

// SlogLevel maps LogLevel to a slog level. Unknown names mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// DeriveWSURL turns the bot API base URL into its push stream URL,
// e.g. http://host:5000 -> ws://host:5000/ws.
func DeriveWSURL(apiURL string) (string, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return "", fmt.Errorf("parsing BOT_API_URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
