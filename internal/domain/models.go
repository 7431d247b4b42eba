package domain

import (
	"time"
)

// Recommendation is the clinical guidance attached to a diagnosis category.
type Recommendation struct {
	Category DiagnosisCategory `json:"category"`
	Title    string            `json:"title"`
	Actions  []string          `json:"actions,omitempty"`
	Text     string            `json:"text"`
	Source   string            `json:"source"`
	Language Language          `json:"language"`
}

// ModelInfo describes the loaded classifier and its input contract.
type ModelInfo struct {
	Name              string   `json:"name"`
	Version           string   `json:"version"`
	Algorithm         string   `json:"algorithm"`
	Backend           string   `json:"backend"`
	FeatureNames      []string `json:"feature_names"`
	Classes           []string `json:"classes,omitempty"`
	VocabularyVersion string   `json:"vocabulary_version"`
	// LabelVocabulary maps lower-cased raw labels to categories. Nil means
	// the default vocabulary.
	LabelVocabulary map[string]DiagnosisCategory `json:"label_vocabulary,omitempty"`
	LoadedAt        time.Time                    `json:"loaded_at"`
}

// AssessmentResult is the outcome of one pass through the decision pipeline.
type AssessmentResult struct {
	ID             string             `json:"id"`
	PatientRef     string             `json:"patient_ref,omitempty"`
	Category       DiagnosisCategory  `json:"category"`
	CategoryLabel  string             `json:"category_label"`
	RawLabel       string             `json:"raw_label"`
	BMI            float64            `json:"bmi"`
	Features       map[string]float64 `json:"features"`
	Recommendation Recommendation     `json:"recommendation"`
	Model          ModelInfo          `json:"model"`
	ProcessingTime time.Duration      `json:"processing_time"`
	AssessedAt     time.Time          `json:"assessed_at"`
}
