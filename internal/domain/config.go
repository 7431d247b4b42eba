package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Environment    string               `mapstructure:"environment"`
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Model          ModelConfig          `mapstructure:"model"`
	Cache          CacheConfig          `mapstructure:"cache"`
	History        HistoryConfig        `mapstructure:"history"`
	Events         EventsConfig         `mapstructure:"events"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// RateLimit is requests per minute per client; 0 disables limiting.
	RateLimit  int    `mapstructure:"rate_limit"`
	RateBurst  int    `mapstructure:"rate_burst"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
	CertFile   string `mapstructure:"cert_file"`
	KeyFile    string `mapstructure:"key_file"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// ModelConfig selects and configures the classifier backend.
type ModelConfig struct {
	// Backend is "file" (serialized artifact) or "http" (model server).
	Backend      string             `mapstructure:"backend"`
	ArtifactPath string             `mapstructure:"artifact_path"`
	Remote       RemoteModelConfig  `mapstructure:"remote"`
	Cache        PredictionCacheCfg `mapstructure:"cache"`
}

// RemoteModelConfig configures the HTTP model-serving backend.
type RemoteModelConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	ModelName string        `mapstructure:"model_name"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit int           `mapstructure:"rate_limit"`
	Burst     int           `mapstructure:"burst"`
}

// PredictionCacheCfg configures memoisation of predictions.
type PredictionCacheCfg struct {
	Enabled  bool          `mapstructure:"enabled"`
	MaxItems int           `mapstructure:"max_items"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// CacheConfig represents the shared Redis cache configuration
type CacheConfig struct {
	RedisURL    string        `mapstructure:"redis_url"`
	DefaultTTL  time.Duration `mapstructure:"default_ttl"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
}

// HistoryConfig selects where assessments are recorded.
type HistoryConfig struct {
	// Driver is "sqlite", "postgres" or "none".
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// EventsConfig configures assessment event publishing.
type EventsConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	// PublishTimeout bounds one publish; it does not follow the request.
	PublishTimeout time.Duration `mapstructure:"publish_timeout"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// RecommendationConfig configures guidance rendering.
type RecommendationConfig struct {
	Language string `mapstructure:"language"`
}
