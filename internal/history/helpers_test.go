package history

import (
	"fmt"
	"time"

	"github.com/preeclampsia-risk-mcp/internal/domain"
)

func sampleResult(id string, category domain.DiagnosisCategory, at time.Time) *domain.AssessmentResult {
	return &domain.AssessmentResult{
		ID:         id,
		PatientRef: "ANC-" + id,
		Category:   category,
		RawLabel:   fmt.Sprintf("raw-%s", category),
		BMI:        23.44,
		Features: map[string]float64{
			"systolic":            145,
			"urine_protein_grade": 1,
		},
		Model: domain.ModelInfo{
			Name:              "preeclampsia-test",
			Version:           "1.0.0",
			VocabularyVersion: "v1",
		},
		AssessedAt: at.UTC(),
	}
}
