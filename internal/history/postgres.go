package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/preeclampsia-risk-mcp/internal/database"
	"github.com/preeclampsia-risk-mcp/internal/domain"
)

// PostgresStore implements Store on PostgreSQL. The schema is created by the
// migrations in migrations/.
type PostgresStore struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewPostgresStore uses an established connection pool.
func NewPostgresStore(db *database.DB, logger *logrus.Logger) (*PostgresStore, error) {
	if db == nil || db.Pool == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &PostgresStore{db: db.Pool, log: logger}, nil
}

func (s *PostgresStore) Save(ctx context.Context, result *domain.AssessmentResult) error {
	rec := NewRecord(result)
	featuresJSON, err := json.Marshal(rec.Features)
	if err != nil {
		return fmt.Errorf("marshaling features: %w", err)
	}

	query := `
		INSERT INTO assessments (
			id, patient_ref, category, raw_label, bmi, features,
			model_name, model_version, vocabulary_version, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`

	_, err = s.db.Exec(ctx, query,
		rec.ID, rec.PatientRef, string(rec.Category), rec.RawLabel, rec.BMI, featuresJSON,
		rec.ModelName, rec.ModelVersion, rec.VocabularyVersion, rec.CreatedAt,
	)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"assessment_id": rec.ID,
			"category":      rec.Category,
			"error":         err,
		}).Error("Failed to create assessment")
		return fmt.Errorf("creating assessment: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"assessment_id": rec.ID,
		"category":      rec.Category,
	}).Debug("Assessment recorded")
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Record, error) {
	query := `SELECT ` + selectColumns + ` FROM assessments WHERE id = $1`

	rec, err := scanRecord(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("assessment %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting assessment: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	limit, offset = normalizePage(limit, offset)

	query := `
		SELECT ` + selectColumns + `
		FROM assessments
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2`

	rows, err := s.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing assessments: %w", err)
	}
	defer rows.Close()

	result := []*Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning assessment: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM assessments").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting assessments: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CountByCategory(ctx context.Context) (map[domain.DiagnosisCategory]int64, error) {
	rows, err := s.db.Query(ctx, "SELECT category, COUNT(*) FROM assessments GROUP BY category")
	if err != nil {
		return nil, fmt.Errorf("counting by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.DiagnosisCategory]int64)
	for rows.Next() {
		var category string
		var n int64
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scanning category count: %w", err)
		}
		counts[domain.DiagnosisCategory(category)] = n
	}
	return counts, rows.Err()
}

func (s *PostgresStore) ExportJSON(ctx context.Context, w io.Writer) error {
	return exportJSON(ctx, s, w)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close is a no-op; the pool is owned by database.DB.
func (s *PostgresStore) Close() error {
	return nil
}
