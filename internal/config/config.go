// Package config provides configuration loading from environment variables
// and the multi-source setting resolver used across the dashboard.
package config

import (
	"fmt"
	"os"
)

// Resolver keys for operator-managed settings. These are resolved at
// request time through the provider chain, not captured at startup.
const (
	KeyWebPassword     = "WEB_PASSWORD"
	KeyWebPasswordHash = "WEB_PASSWORD_HASH"
	KeyEmail           = "CF_EMAIL"
	KeyGlobalKey       = "CF_KEY"
	KeyAccountID       = "CF_ID"
	KeyAPIToken        = "CF_TOKEN"
	KeyBotToken        = "TG_BOT_TOKEN"
	KeyChatID          = "TG_CHAT_ID"
	KeyRequestLimit    = "REQUEST_LIMIT"
)

// MaxAccountSlots is the number of numbered extra-account slots scanned
// by the aggregator (CF_ACCOUNTS_1 .. CF_ACCOUNTS_10).
const MaxAccountSlots = 10

// AccountSlotKey returns the resolver key for one of the numbered
// extra-account slots.
func AccountSlotKey(index int) string {
	return fmt.Sprintf("CF_ACCOUNTS_%d", index)
}

// Config holds all process-level application configuration.
type Config struct {
	LogLevel          string // debug, info, warn, error
	LogFile           string // Optional: rotate logs to this file instead of stderr
	ListenAddr        string // Server listen address (e.g., ":8080")
	MetricsListenAddr string // Metrics listener address (e.g., "localhost:9090")
	DatabasePath      string // SQLite database path
	CloudflareAPIURL  string // Optional: base URL override for the Cloudflare API
	TelegramAPIURL    string // Optional: base URL override for the Telegram bot API
}

// Load parses configuration from environment variables.
// All configuration options have sensible defaults for ease of deployment.
func Load() (*Config, error) {
	logLevel := os.Getenv("LOG_LEVEL")
	logFile := os.Getenv("LOG_FILE")
	listenAddr := os.Getenv("LISTEN_ADDR")
	metricsListenAddr := os.Getenv("METRICS_LISTEN_ADDR")
	databasePath := os.Getenv("DATABASE_PATH")
	cloudflareAPIURL := os.Getenv("CF_API_URL")
	telegramAPIURL := os.Getenv("TG_API_URL")

	// Set defaults for optional fields
	if logLevel == "" {
		logLevel = "info"
	}

	if listenAddr == "" {
		listenAddr = ":8080"
	}

	if metricsListenAddr == "" {
		metricsListenAddr = "localhost:9090"
	}

	if databasePath == "" {
		databasePath = "/data/dashboard.db"
	}

	cfg := &Config{
		LogLevel:          logLevel,
		LogFile:           logFile,
		ListenAddr:        listenAddr,
		MetricsListenAddr: metricsListenAddr,
		DatabasePath:      databasePath,
		CloudflareAPIURL:  cloudflareAPIURL,
		TelegramAPIURL:    telegramAPIURL,
	}

	return cfg, nil
}

// Validate checks all configuration constraints.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q (want debug, info, warn, or error)", c.LogLevel)
	}
	return nil
}
