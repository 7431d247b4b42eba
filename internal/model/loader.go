package model

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/preeclampsia-risk-mcp/internal/cache"
	"github.com/preeclampsia-risk-mcp/internal/domain"
)

// NewPredictor builds the configured backend once at startup. When prediction
// caching is enabled the result is wrapped with an in-memory tier followed by
// shared, if non-nil.
func NewPredictor(ctx context.Context, config domain.ModelConfig, shared cache.Cache, logger *logrus.Logger) (domain.Predictor, error) {
	var (
		p   domain.Predictor
		err error
	)

	switch config.Backend {
	case "", BackendFile:
		p, err = LoadArtifactPredictor(config.ArtifactPath)
	case BackendHTTP:
		p, err = NewRemotePredictor(ctx, config.Remote, logger)
	default:
		return nil, fmt.Errorf("unknown model backend %q", config.Backend)
	}
	if err != nil {
		return nil, err
	}

	info := p.Info()
	logger.WithFields(logrus.Fields{
		"model":      info.Name,
		"version":    info.Version,
		"backend":    info.Backend,
		"vocabulary": info.VocabularyVersion,
	}).Info("Model loaded")

	if !config.Cache.Enabled {
		return p, nil
	}

	tiers := []cache.Cache{cache.NewMemoryCache(config.Cache.MaxItems, config.Cache.TTL)}
	if shared != nil {
		tiers = append(tiers, shared)
	}
	return NewCachingPredictor(p, logger, tiers...), nil
}
