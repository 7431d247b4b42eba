// Package model loads the pre-trained preeclampsia classifier and exposes it
// as a domain.Predictor.
package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/preeclampsia-risk-mcp/internal/domain"
	"github.com/preeclampsia-risk-mcp/internal/features"
)

// AlgorithmMultinomialLogistic is the only artifact algorithm understood by
// ArtifactPredictor.
const AlgorithmMultinomialLogistic = "multinomial_logistic"

// DefaultVocabularyVersion names the built-in label vocabulary.
const DefaultVocabularyVersion = "v1"

// Artifact is the serialized form of a fitted classifier.
type Artifact struct {
	Name            string           `json:"name" yaml:"name"`
	Version         string           `json:"version" yaml:"version"`
	Algorithm       string           `json:"algorithm" yaml:"algorithm"`
	FeatureNames    []string         `json:"feature_names" yaml:"feature_names"`
	Classes         []string         `json:"classes" yaml:"classes"`
	LabelVocabulary *LabelVocabulary `json:"label_vocabulary,omitempty" yaml:"label_vocabulary,omitempty"`
	Scaler          *Scaler          `json:"scaler,omitempty" yaml:"scaler,omitempty"`
	Intercepts      []float64        `json:"intercepts" yaml:"intercepts"`
	Coefficients    [][]float64      `json:"coefficients" yaml:"coefficients"`
}

// LabelVocabulary maps the raw labels a model emits to category names.
type LabelVocabulary struct {
	Version string            `json:"version" yaml:"version"`
	Labels  map[string]string `json:"labels" yaml:"labels"`
}

// Scaler standardises inputs as (x - mean) / scale before scoring.
type Scaler struct {
	Mean  []float64 `json:"mean" yaml:"mean"`
	Scale []float64 `json:"scale" yaml:"scale"`
}

// LoadArtifact reads and validates an artifact. Files ending in .yaml or .yml
// are decoded as YAML, anything else as JSON.
func LoadArtifact(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model artifact %s: %w", path, err)
	}

	var a Artifact
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &a)
	default:
		err = json.Unmarshal(data, &a)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", domain.ErrIncompatibleModel, path, err)
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Validate checks the artifact against the feature contract and its own
// internal shapes.
func (a *Artifact) Validate() error {
	if a.Algorithm != AlgorithmMultinomialLogistic {
		return fmt.Errorf("%w: unsupported algorithm %q", domain.ErrIncompatibleModel, a.Algorithm)
	}
	if !features.MatchesContract(a.FeatureNames) {
		return fmt.Errorf("%w: feature names %v do not match %v",
			domain.ErrIncompatibleModel, a.FeatureNames, features.Names())
	}

	k := len(a.Classes)
	if k < 2 {
		return fmt.Errorf("%w: need at least 2 classes, got %d", domain.ErrIncompatibleModel, k)
	}
	if len(a.Intercepts) != k {
		return fmt.Errorf("%w: %d intercepts for %d classes", domain.ErrIncompatibleModel, len(a.Intercepts), k)
	}
	if len(a.Coefficients) != k {
		return fmt.Errorf("%w: %d coefficient rows for %d classes", domain.ErrIncompatibleModel, len(a.Coefficients), k)
	}
	for i, row := range a.Coefficients {
		if len(row) != features.Size {
			return fmt.Errorf("%w: coefficient row %d has %d values, want %d",
				domain.ErrIncompatibleModel, i, len(row), features.Size)
		}
	}

	if a.Scaler != nil {
		if len(a.Scaler.Mean) != features.Size || len(a.Scaler.Scale) != features.Size {
			return fmt.Errorf("%w: scaler must have %d means and scales", domain.ErrIncompatibleModel, features.Size)
		}
		for i, s := range a.Scaler.Scale {
			if s == 0 {
				return fmt.Errorf("%w: zero scale for feature %s", domain.ErrIncompatibleModel, features.FeatureNames[i])
			}
		}
	}

	if _, err := a.vocabulary(); err != nil {
		return err
	}
	return nil
}

// vocabulary resolves the declared label vocabulary. A nil map means the
// artifact relies on the default vocabulary.
func (a *Artifact) vocabulary() (map[string]domain.DiagnosisCategory, error) {
	if a.LabelVocabulary == nil || len(a.LabelVocabulary.Labels) == 0 {
		return nil, nil
	}
	out := make(map[string]domain.DiagnosisCategory, len(a.LabelVocabulary.Labels))
	for raw, name := range a.LabelVocabulary.Labels {
		c, err := domain.ParseDiagnosisCategory(name)
		if err != nil {
			return nil, fmt.Errorf("%w: label vocabulary entry %q: %v", domain.ErrIncompatibleModel, raw, err)
		}
		out[strings.ToLower(raw)] = c
	}
	return out, nil
}

func (a *Artifact) vocabularyVersion() string {
	if a.LabelVocabulary != nil && a.LabelVocabulary.Version != "" {
		return a.LabelVocabulary.Version
	}
	return DefaultVocabularyVersion
}
