package model

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/preeclampsia-risk-mcp/internal/cache"
	"github.com/preeclampsia-risk-mcp/internal/domain"
)

// CachingPredictor memoises predictions of a deterministic predictor across
// one or more cache tiers, fastest first. Cache failures are logged and never
// fail a prediction.
type CachingPredictor struct {
	next   domain.Predictor
	tiers  []cache.Cache
	logger *logrus.Logger
	prefix string
}

// NewCachingPredictor wraps next with the given tiers.
func NewCachingPredictor(next domain.Predictor, logger *logrus.Logger, tiers ...cache.Cache) *CachingPredictor {
	info := next.Info()
	return &CachingPredictor{
		next:   next,
		tiers:  tiers,
		logger: logger,
		prefix: "prediction:" + info.Name + ":" + info.Version + ":",
	}
}

func (c *CachingPredictor) Predict(ctx context.Context, vector []float64) (string, error) {
	key := c.prefix + VectorKey(vector)

	for i, tier := range c.tiers {
		label, found, err := tier.Get(ctx, key)
		if err != nil {
			c.logger.WithError(err).WithField("tier", i).Warn("Prediction cache read failed")
			continue
		}
		if found {
			c.fill(ctx, key, label, c.tiers[:i])
			return label, nil
		}
	}

	label, err := c.next.Predict(ctx, vector)
	if err != nil {
		return "", err
	}
	c.fill(ctx, key, label, c.tiers)
	return label, nil
}

func (c *CachingPredictor) fill(ctx context.Context, key, label string, tiers []cache.Cache) {
	for i, tier := range tiers {
		if err := tier.Set(ctx, key, label, 0); err != nil {
			c.logger.WithError(err).WithField("tier", i).Warn("Prediction cache write failed")
		}
	}
}

func (c *CachingPredictor) Info() domain.ModelInfo {
	return c.next.Info()
}

// Unwrap returns the underlying predictor.
func (c *CachingPredictor) Unwrap() domain.Predictor {
	return c.next
}

// VectorKey is a stable digest of a feature vector.
func VectorKey(vector []float64) string {
	h := sha256.New()
	var buf [8]byte
	for _, v := range vector {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}
