package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/preeclampsia-risk-mcp/internal/database"
	"github.com/preeclampsia-risk-mcp/internal/domain"
)

// EnvPrefix is prepended to every environment override, e.g.
// PREECLAMPSIA_SERVER_PORT or PREECLAMPSIA_MODEL_BACKEND.
const EnvPrefix = "PREECLAMPSIA"

// Manager implements the ConfigManager interface using Viper
type Manager struct {
	v      *viper.Viper
	config *domain.Config
	file   string
}

var _ domain.ConfigManager = (*Manager)(nil)

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	return NewManagerFromFile("")
}

// NewManagerFromFile loads configuration from an explicit file. An empty path
// searches the default locations.
func NewManagerFromFile(path string) (*Manager, error) {
	m := &Manager{file: path}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.file != "" {
		v.SetConfigFile(m.file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/preeclampsia-risk/")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// A missing file is fine; defaults and environment still apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	normalize(config)

	m.v = v
	m.config = config
	return nil
}

// normalize lower-cases the enumerated settings so every consumer can
// compare them exactly.
func normalize(c *domain.Config) {
	lower := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	c.Environment = lower(c.Environment)
	c.Model.Backend = lower(c.Model.Backend)
	c.History.Driver = lower(c.History.Driver)
	c.Recommendation.Language = lower(c.Recommendation.Language)
	c.Logging.Format = lower(c.Logging.Format)
	c.Database.SSLMode = lower(c.Database.SSLMode)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "15s")
	v.SetDefault("server.rate_limit", 120)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.tls_enabled", false)
	v.SetDefault("server.cert_file", "")
	v.SetDefault("server.key_file", "")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "preeclampsia")
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("database.migrations_path", "migrations")

	// Model defaults
	v.SetDefault("model.backend", "file")
	v.SetDefault("model.artifact_path", "models/preeclampsia_v1.json")
	v.SetDefault("model.remote.base_url", "")
	v.SetDefault("model.remote.model_name", "preeclampsia")
	v.SetDefault("model.remote.api_key", "")
	v.SetDefault("model.remote.timeout", "10s")
	v.SetDefault("model.remote.rate_limit", 20)
	v.SetDefault("model.remote.burst", 5)
	v.SetDefault("model.cache.enabled", true)
	v.SetDefault("model.cache.max_items", 1000)
	v.SetDefault("model.cache.ttl", "1h")

	// Cache defaults
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.default_ttl", "1h")
	v.SetDefault("cache.max_retries", 3)
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.pool_timeout", "4s")
	v.SetDefault("cache.key_prefix", "preeclampsia:")

	// History defaults
	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.sqlite_path", "data/assessments.db")

	// Events defaults
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.brokers", []string{"localhost:9092"})
	v.SetDefault("events.topic", "preeclampsia.assessments")
	v.SetDefault("events.publish_timeout", "2s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("recommendation.language", "en")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetDatabaseConfig returns database configuration
func (m *Manager) GetDatabaseConfig() *domain.DatabaseConfig {
	return &m.config.Database
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetModelConfig returns the classifier backend configuration
func (m *Manager) GetModelConfig() *domain.ModelConfig {
	return &m.config.Model
}

// ConfigFileUsed reports the file that was read, if any.
func (m *Manager) ConfigFileUsed() string {
	return m.v.ConfigFileUsed()
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.TLSEnabled && (config.Server.CertFile == "" || config.Server.KeyFile == "") {
		return fmt.Errorf("cert_file and key_file are required when TLS is enabled")
	}

	switch strings.ToLower(config.Model.Backend) {
	case "", "file":
		if config.Model.ArtifactPath == "" {
			return fmt.Errorf("model artifact path is required")
		}
	case "http":
		if config.Model.Remote.BaseURL == "" {
			return fmt.Errorf("model base URL is required for the http backend")
		}
		if config.Model.Remote.ModelName == "" {
			return fmt.Errorf("model name is required for the http backend")
		}
	default:
		return fmt.Errorf("invalid model backend: %s", config.Model.Backend)
	}

	switch strings.ToLower(config.History.Driver) {
	case "none":
	case "", "sqlite":
		if config.History.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case "postgres":
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if config.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if config.Database.Username == "" {
			return fmt.Errorf("database username is required")
		}
	default:
		return fmt.Errorf("invalid history driver: %s", config.History.Driver)
	}

	if config.Events.Enabled {
		if len(config.Events.Brokers) == 0 {
			return fmt.Errorf("at least one Kafka broker is required when events are enabled")
		}
		if config.Events.Topic == "" {
			return fmt.Errorf("events topic is required")
		}
	}

	if lang := strings.ToLower(config.Recommendation.Language); lang != "" && lang != "en" && lang != "id" {
		return fmt.Errorf("invalid recommendation language: %s", config.Recommendation.Language)
	}

	if _, err := logrus.ParseLevel(config.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// GetDatabaseConnectionString returns a formatted database connection string
func (m *Manager) GetDatabaseConnectionString() string {
	return database.ConfigFrom(m.config.Database).DSN()
}

// GetDatabaseURL returns the database URL used by the migrator.
func (m *Manager) GetDatabaseURL() string {
	return database.ConfigFrom(m.config.Database).URL()
}

// GetRedisConnectionString returns the Redis connection string
func (m *Manager) GetRedisConnectionString() string {
	return m.config.Cache.RedisURL
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}

// NewLogger builds a logrus logger from the logging section.
func NewLogger(cfg domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	if strings.ToLower(cfg.Format) == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.SetOutput(output(cfg.Output))
	return logger
}

func output(name string) io.Writer {
	switch strings.ToLower(name) {
	case "stderr":
		return os.Stderr
	case "", "stdout":
		return os.Stdout
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return os.Stderr
	}
	return f
}
