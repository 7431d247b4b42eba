// Package config provides configuration management for the risk servers.
// This file contains the lightweight configuration for standalone operation.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/preeclampsia-risk-mcp/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation.
// It requires no external services and uses sensible defaults.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for the history database and exports

	// Model
	ModelPath string // Serialized classifier artifact

	// Prediction cache
	CacheMaxItems int           // Maximum memoised predictions
	CacheTTL      time.Duration // Lifetime of a memoised prediction

	// Guidance
	Language domain.Language // Default guidance language: en, id

	// Transport settings
	Transport string // Transport type: stdio, http
	HTTPPort  int    // HTTP port (if transport is http)

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".preeclampsia-risk")

	return &LiteConfig{
		DataDir:       dataDir,
		ModelPath:     filepath.Join("models", "preeclampsia_v1.json"),
		CacheMaxItems: 1000,
		CacheTTL:      time.Hour,
		Language:      domain.English,
		Transport:     "stdio",
		HTTPPort:      8080,
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

// LoadLiteConfig loads configuration from PE_* environment variables.
// Falls back to defaults if not set.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("PE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("PE_MODEL_PATH"); v != "" {
		cfg.ModelPath = v
	}

	if v := os.Getenv("PE_CACHE_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheMaxItems = n
		}
	}
	if v := os.Getenv("PE_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}

	if v := os.Getenv("PE_LANGUAGE"); v != "" {
		cfg.Language = domain.ParseLanguage(v)
	}

	if v := os.Getenv("PE_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("PE_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	if v := os.Getenv("PE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// ModelConfig adapts the lite settings to the predictor loader.
func (c *LiteConfig) ModelConfig() domain.ModelConfig {
	return domain.ModelConfig{
		Backend:      "file",
		ArtifactPath: c.ModelPath,
		Cache: domain.PredictionCacheCfg{
			Enabled:  c.CacheMaxItems > 0,
			MaxItems: c.CacheMaxItems,
			TTL:      c.CacheTTL,
		},
	}
}

// LoggingConfig adapts the lite settings to NewLogger. Output goes to stderr
// because stdout carries the MCP stream.
func (c *LiteConfig) LoggingConfig() domain.LoggingConfig {
	return domain.LoggingConfig{Level: c.LogLevel, Format: c.LogFormat, Output: "stderr"}
}

// HistoryDBPath returns the path to the assessment history SQLite database.
func (c *LiteConfig) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "assessments.db")
}

// ExportDir returns the directory for JSON exports.
func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.ExportDir(), 0755)
}
