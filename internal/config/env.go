package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom log shipping configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// StitchConfig defines assembly behavior shared by the CLI and the
// server.
type StitchConfig struct {
	PageSize  string
	Landscape bool
	TempDir   string
	Strict    bool
}

// FetchConfig defines remote input retrieval behavior.
type FetchConfig struct {
	HTTPTimeout time.Duration
}

// ServerConfig defines the HTTP API behavior.
type ServerConfig struct {
	Port        int
	Concurrency int
	QueueSize   int
	SpoolDir    string
	RedisURL    string
	StatusTTL   time.Duration
}

// PreviewConfig defines first-page preview rendering.
type PreviewConfig struct {
	DPI     int
	Quality int
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Stitch  StitchConfig
	Fetch   FetchConfig
	Server  ServerConfig
	Preview PreviewConfig
}

// FromEnv loads configuration from environment with sensible defaults.
// An empty REDIS_URL keeps job statuses in memory.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", ""),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_pdfstitch",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Stitch = StitchConfig{
		PageSize:  getEnv("PAGE_SIZE", "A4"),
		Landscape: parseBool(getEnv("PAGE_LANDSCAPE", "0")),
		TempDir:   getEnv("TEMP_DIR", ""),
		Strict:    parseBool(getEnv("STITCH_STRICT", "0")),
	}

	cfg.Fetch = FetchConfig{
		HTTPTimeout: parseDuration(getEnv("HTTP_TIMEOUT", "60s"), 60*time.Second),
	}

	cfg.Server = ServerConfig{
		Port:        parseInt(getEnv("PORT", "8080"), 8080),
		Concurrency: parseInt(getEnv("STITCH_CONCURRENCY", "4"), 4),
		QueueSize:   parseInt(getEnv("QUEUE_SIZE", "64"), 64),
		SpoolDir:    getEnv("SPOOL_DIR", filepath.Join(os.TempDir(), "pdfstitch-spool")),
		RedisURL:    getEnv("REDIS_URL", ""),
		StatusTTL:   parseDuration(getEnv("STATUS_TTL", "24h"), 24*time.Hour),
	}

	cfg.Preview = PreviewConfig{
		DPI:     parseInt(getEnv("PREVIEW_DPI", "150"), 150),
		Quality: parseInt(getEnv("PREVIEW_QUALITY", "90"), 90),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
