package model

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preeclampsia-risk-mcp/internal/domain"
)

func TestNewPredictor_FileBackend(t *testing.T) {
	logger, _ := test.NewNullLogger()

	p, err := NewPredictor(context.Background(), domain.ModelConfig{
		Backend:      BackendFile,
		ArtifactPath: "testdata/model.json",
	}, nil, logger)
	require.NoError(t, err)
	assert.IsType(t, &ArtifactPredictor{}, p)
}

func TestNewPredictor_CachedFileBackend(t *testing.T) {
	logger, _ := test.NewNullLogger()

	p, err := NewPredictor(context.Background(), domain.ModelConfig{
		ArtifactPath: "testdata/model.json",
		Cache:        domain.PredictionCacheCfg{Enabled: true, MaxItems: 16, TTL: time.Minute},
	}, nil, logger)
	require.NoError(t, err)

	cp, ok := p.(*CachingPredictor)
	require.True(t, ok)
	assert.IsType(t, &ArtifactPredictor{}, cp.Unwrap())
	assert.Equal(t, "preeclampsia-test", p.Info().Name)
}

func TestNewPredictor_MissingArtifact(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := NewPredictor(context.Background(), domain.ModelConfig{ArtifactPath: "testdata/nope.json"}, nil, logger)
	assert.Error(t, err)
}

func TestNewPredictor_UnknownBackend(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := NewPredictor(context.Background(), domain.ModelConfig{Backend: "onnx"}, nil, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown model backend")
}
