package service

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preeclampsia-risk-mcp/internal/domain"
)

func TestLabelMapper_DefaultVocabulary(t *testing.T) {
	logger, _ := test.NewNullLogger()
	m := NewLabelMapper("", nil, logger)

	tests := []struct {
		raw      string
		expected domain.DiagnosisCategory
	}{
		{"normal", domain.Normal},
		{"Normal", domain.Normal},
		{"MILD", domain.MildPreeclampsia},
		{"mild", domain.MildPreeclampsia},
		{"Severe", domain.SeverePreeclampsia},
		{"severe", domain.SeverePreeclampsia},
		{"unknown", domain.Unrecognized},
		{"", domain.Unrecognized},
		{" severe", domain.Unrecognized},
		{"2", domain.Unrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, m.Map(tt.raw))
		})
	}
	assert.Equal(t, DefaultVocabularyVersion, m.Version())
}

func TestLabelMapper_LogsUnmappedLabels(t *testing.T) {
	logger, hook := test.NewNullLogger()
	m := NewLabelMapper("", nil, logger)

	m.Map("normal")
	assert.Empty(t, hook.AllEntries())

	m.Map("eclampsia")
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "eclampsia", entry.Data["raw_label"])
	assert.Equal(t, "v1", entry.Data["vocabulary"])
}

func TestLabelMapper_ModelVocabulary(t *testing.T) {
	logger, _ := test.NewNullLogger()
	m := NewLabelMapperForModel(domain.ModelInfo{
		VocabularyVersion: "v2-id",
		LabelVocabulary: map[string]domain.DiagnosisCategory{
			"Berat":  domain.SeverePreeclampsia,
			"ringan": domain.MildPreeclampsia,
			"normal": domain.Normal,
		},
	}, logger)

	assert.Equal(t, "v2-id", m.Version())
	assert.Equal(t, domain.SeverePreeclampsia, m.Map("BERAT"))
	assert.Equal(t, domain.MildPreeclampsia, m.Map("Ringan"))
	assert.Equal(t, domain.Unrecognized, m.Map("severe"), "default vocabulary is replaced, not merged")
}
