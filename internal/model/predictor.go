package model

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/preeclampsia-risk-mcp/internal/domain"
	"github.com/preeclampsia-risk-mcp/internal/features"
)

// BackendFile identifies predictors backed by a local artifact.
const BackendFile = "file"

// ArtifactPredictor scores a linear multinomial model read from an artifact.
// It holds no mutable state after construction.
type ArtifactPredictor struct {
	artifact *Artifact
	info     domain.ModelInfo
}

// LoadArtifactPredictor reads the artifact at path and builds a predictor.
func LoadArtifactPredictor(path string) (*ArtifactPredictor, error) {
	a, err := LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	return NewArtifactPredictor(a)
}

// NewArtifactPredictor validates a and wraps it.
func NewArtifactPredictor(a *Artifact) (*ArtifactPredictor, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	vocab, _ := a.vocabulary()

	return &ArtifactPredictor{
		artifact: a,
		info: domain.ModelInfo{
			Name:              a.Name,
			Version:           a.Version,
			Algorithm:         a.Algorithm,
			Backend:           BackendFile,
			FeatureNames:      append([]string(nil), a.FeatureNames...),
			Classes:           append([]string(nil), a.Classes...),
			VocabularyVersion: a.vocabularyVersion(),
			LabelVocabulary:   vocab,
			LoadedAt:          time.Now(),
		},
	}, nil
}

// Predict returns the class with the highest linear score. Ties resolve to
// the class listed first.
func (p *ArtifactPredictor) Predict(ctx context.Context, vector []float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPrediction, err)
	}
	if len(vector) != features.Size {
		return "", fmt.Errorf("%w: expected %d features, got %d", domain.ErrPrediction, features.Size, len(vector))
	}
	for i, v := range vector {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", fmt.Errorf("%w: feature %s is not finite", domain.ErrPrediction, features.FeatureNames[i])
		}
	}

	x := vector
	if s := p.artifact.Scaler; s != nil {
		x = make([]float64, len(vector))
		for i, v := range vector {
			x[i] = (v - s.Mean[i]) / s.Scale[i]
		}
	}

	scores := p.Scores(x)
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return p.artifact.Classes[best], nil
}

// Scores returns the per-class linear scores for an already standardised
// vector.
func (p *ArtifactPredictor) Scores(x []float64) []float64 {
	scores := make([]float64, len(p.artifact.Classes))
	for k, row := range p.artifact.Coefficients {
		score := p.artifact.Intercepts[k]
		for i, w := range row {
			score += w * x[i]
		}
		scores[k] = score
	}
	return scores
}

func (p *ArtifactPredictor) Info() domain.ModelInfo {
	return p.info
}
