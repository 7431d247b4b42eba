package domain

import (
	"context"
)

// Predictor is the opaque pre-trained classifier. Implementations are loaded
// once at startup and are safe for concurrent use.
type Predictor interface {
	// Predict returns the raw class label for an ordered feature vector. The
	// slice length and order must match ModelInfo.FeatureNames.
	Predict(ctx context.Context, vector []float64) (string, error)
	Info() ModelInfo
}

// EventPublisher announces completed assessments to downstream consumers.
type EventPublisher interface {
	PublishAssessment(ctx context.Context, result *AssessmentResult) error
	Close() error
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	GetModelConfig() *ModelConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetDatabaseURL() string
	IsProduction() bool
	IsDevelopment() bool
}

// AssessmentRecorder persists completed assessments.
type AssessmentRecorder interface {
	Save(ctx context.Context, result *AssessmentResult) error
}
