// Package history records completed assessments so they can be listed,
// counted per category and exported.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/preeclampsia-risk-mcp/internal/domain"
)

// DefaultListLimit and MaxListLimit bound List pagination.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Record is a stored assessment.
type Record struct {
	ID                string                   `json:"id"`
	PatientRef        string                   `json:"patient_ref,omitempty"`
	Category          domain.DiagnosisCategory `json:"category"`
	RawLabel          string                   `json:"raw_label"`
	BMI               float64                  `json:"bmi"`
	Features          map[string]float64       `json:"features"`
	ModelName         string                   `json:"model_name"`
	ModelVersion      string                   `json:"model_version"`
	VocabularyVersion string                   `json:"vocabulary_version"`
	CreatedAt         time.Time                `json:"created_at"`
}

// NewRecord flattens an assessment result for storage.
func NewRecord(result *domain.AssessmentResult) *Record {
	createdAt := result.AssessedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &Record{
		ID:                result.ID,
		PatientRef:        result.PatientRef,
		Category:          result.Category,
		RawLabel:          result.RawLabel,
		BMI:               result.BMI,
		Features:          result.Features,
		ModelName:         result.Model.Name,
		ModelVersion:      result.Model.Version,
		VocabularyVersion: result.Model.VocabularyVersion,
		CreatedAt:         createdAt,
	}
}

// Store defines the interface for assessment history storage.
type Store interface {
	// Save records an assessment. Saving an existing id is a no-op.
	Save(ctx context.Context, result *domain.AssessmentResult) error

	// Get returns the record with id, or an error wrapping domain.ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns records newest first.
	List(ctx context.Context, limit, offset int) ([]*Record, error)

	// Count returns the total number of records.
	Count(ctx context.Context) (int64, error)

	// CountByCategory returns the number of records per category.
	CountByCategory(ctx context.Context) (map[domain.DiagnosisCategory]int64, error)

	// ExportJSON writes every record to w.
	ExportJSON(ctx context.Context, w io.Writer) error

	// Ping checks the backing database.
	Ping(ctx context.Context) error

	Close() error
}

// Export is the JSON export format.
type Export struct {
	Version     string    `json:"version"`
	ExportedAt  time.Time `json:"exported_at"`
	Count       int       `json:"count"`
	Assessments []*Record `json:"assessments"`
}

// maxExportLimit is the maximum number of entries to export at once.
const maxExportLimit = 1000000

func exportJSON(ctx context.Context, s Store, w io.Writer) error {
	all, err := s.List(ctx, maxExportLimit, 0)
	if err != nil {
		return fmt.Errorf("failed to list assessments: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(&Export{
		Version:     "1.0",
		ExportedAt:  time.Now().UTC(),
		Count:       len(all),
		Assessments: all,
	})
}

// normalizePage clamps pagination parameters. Exports bypass MaxListLimit.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit && limit != maxExportLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
