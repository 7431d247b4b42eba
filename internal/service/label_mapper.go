package service

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/preeclampsia-risk-mcp/internal/domain"
)

// DefaultVocabularyVersion names DefaultVocabulary.
const DefaultVocabularyVersion = "v1"

// DefaultVocabulary is the label set of the reference model.
var DefaultVocabulary = map[string]domain.DiagnosisCategory{
	"normal": domain.Normal,
	"mild":   domain.MildPreeclampsia,
	"severe": domain.SeverePreeclampsia,
}

// LabelMapper turns a raw model label into a DiagnosisCategory. It never
// fails: labels outside the vocabulary map to domain.Unrecognized.
type LabelMapper struct {
	version string
	labels  map[string]domain.DiagnosisCategory
	logger  *logrus.Logger
}

// NewLabelMapper builds a mapper for the given vocabulary. A nil or empty
// vocabulary selects DefaultVocabulary.
func NewLabelMapper(version string, labels map[string]domain.DiagnosisCategory, logger *logrus.Logger) *LabelMapper {
	if len(labels) == 0 {
		labels = DefaultVocabulary
		version = DefaultVocabularyVersion
	}
	if version == "" {
		version = DefaultVocabularyVersion
	}

	normalized := make(map[string]domain.DiagnosisCategory, len(labels))
	for raw, c := range labels {
		normalized[strings.ToLower(raw)] = c
	}

	return &LabelMapper{
		version: version,
		labels:  normalized,
		logger:  logger,
	}
}

// NewLabelMapperForModel uses the vocabulary the model declares.
func NewLabelMapperForModel(info domain.ModelInfo, logger *logrus.Logger) *LabelMapper {
	return NewLabelMapper(info.VocabularyVersion, info.LabelVocabulary, logger)
}

// Map looks up raw case-insensitively. Surrounding whitespace is significant.
func (m *LabelMapper) Map(raw string) domain.DiagnosisCategory {
	if c, ok := m.labels[strings.ToLower(raw)]; ok {
		return c
	}

	m.logger.WithFields(logrus.Fields{
		"raw_label":  raw,
		"vocabulary": m.version,
	}).Warn("Model returned a label outside the vocabulary")
	return domain.Unrecognized
}

// Version returns the vocabulary version in use.
func (m *LabelMapper) Version() string {
	return m.version
}
