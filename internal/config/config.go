package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Transport selects how tool calls reach the server.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

type Config struct {
	// Ark image-generation API
	ArkAPIKey  string
	ArkBaseURL string
	ArkModelID string

	// Download behavior
	DownloadTimeout time.Duration
	DownloadWorkers int

	// Transport selection ("stdio" or "http")
	Transport string

	// HTTP transport settings
	Host               string
	Port               string
	RequestTimeout     time.Duration
	MaxRequestBodySize int64

	// Optional Azure Blob mirror for downloaded images
	AzureAccount   string
	AzureKey       string
	AzureContainer string
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// MirrorEnabled reports whether downloaded images should also be uploaded
// to Azure Blob storage. All three settings must be present.
func (c *Config) MirrorEnabled() bool {
	return c.AzureAccount != "" && c.AzureKey != "" && c.AzureContainer != ""
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		ArkAPIKey:          os.Getenv("ARK_API_KEY"),
		ArkBaseURL:         getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkModelID:         getEnvOrDefault("ARK_MODEL_ID", "doubao-seedream-4-0-250828"),
		DownloadTimeout:    parseDurationOrDefault("DOWNLOAD_TIMEOUT", 30*time.Second),
		DownloadWorkers:    int(parseIntOrDefault("DOWNLOAD_WORKERS", 4)),
		Transport:          getEnvOrDefault("TRANSPORT", TransportStdio),
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 120*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		AzureAccount:       os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureKey:           os.Getenv("AZURE_STORAGE_KEY"),
		AzureContainer:     os.Getenv("AZURE_STORAGE_CONTAINER"),
	}

	if cfg.Transport != TransportStdio && cfg.Transport != TransportHTTP {
		return nil, fmt.Errorf("invalid TRANSPORT: %q (expected %q or %q)", cfg.Transport, TransportStdio, TransportHTTP)
	}
	if cfg.Transport == TransportHTTP {
		p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
		if err != nil || p < 1 || p > 65535 {
			return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
		}
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.DownloadTimeout <= 0 || cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got download=%s, request=%s)",
			cfg.DownloadTimeout, cfg.RequestTimeout)
	}
	if cfg.DownloadWorkers < 1 {
		return nil, fmt.Errorf("DOWNLOAD_WORKERS must be >= 1 (got %d)", cfg.DownloadWorkers)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
