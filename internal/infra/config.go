package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	MeshyAPIKey      string
	MeshyBaseURL     string
	MeshyMode        string
	MeshyTopology    string
	NegativePrompt   string
	OutputRoot       string
	CatalogPath      string
	PollInterval     time.Duration
	MaxPollAttempts  int
	MaxUnknownStreak int
	PollConcurrency  int
	RequestTimeout   time.Duration
	DownloadTimeout  time.Duration
	ReportFormat     string
	ReportPath       string
	ArchivePath      string
	StatusAddr       string
	DatabaseURL      string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
// The API key is not required here because it may also come from the credential store.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		MeshyAPIKey:      strings.TrimSpace(os.Getenv("MESHY_API_KEY")),
		MeshyBaseURL:     getEnv("MESHY_BASE_URL", "https://api.meshy.ai/v2"),
		MeshyMode:        getEnv("MESHY_MODE", "preview"),
		MeshyTopology:    getEnv("MESHY_TOPOLOGY", "quad"),
		NegativePrompt:   getEnv("MESHY_NEGATIVE_PROMPT", "low quality, blurry, distorted, deformed"),
		OutputRoot:       getEnv("OUTPUT_ROOT", "./public/models"),
		CatalogPath:      os.Getenv("CATALOG_PATH"),
		PollInterval:     time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 10)),
		MaxPollAttempts:  getEnvInt("MAX_POLL_ATTEMPTS", 120),
		MaxUnknownStreak: getEnvInt("MAX_UNKNOWN_STREAK", 30),
		PollConcurrency:  getEnvInt("POLL_CONCURRENCY", 1),
		RequestTimeout:   time.Second * time.Duration(getEnvInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60)),
		DownloadTimeout:  time.Second * time.Duration(getEnvInt("DOWNLOAD_TIMEOUT_SECONDS", 300)),
		ReportFormat:     strings.ToLower(getEnv("REPORT_FORMAT", "text")),
		ReportPath:       getEnvAllowEmpty("REPORT_PATH", "report.json"),
		ArchivePath:      os.Getenv("ARCHIVE_PATH"),
		StatusAddr:       os.Getenv("STATUS_ADDR"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that may also be overridden after loading.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be positive")
	}
	if c.MaxPollAttempts <= 0 {
		return fmt.Errorf("MAX_POLL_ATTEMPTS must be positive")
	}
	if c.MaxUnknownStreak < 0 {
		return fmt.Errorf("MAX_UNKNOWN_STREAK must not be negative")
	}
	if c.PollConcurrency < 1 {
		return fmt.Errorf("POLL_CONCURRENCY must be at least 1")
	}
	if strings.TrimSpace(c.OutputRoot) == "" {
		return fmt.Errorf("OUTPUT_ROOT is required")
	}
	switch c.ReportFormat {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("REPORT_FORMAT must be text, json or yaml, got %q", c.ReportFormat)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// getEnvAllowEmpty treats an explicitly empty variable as a deliberate value.
func getEnvAllowEmpty(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
