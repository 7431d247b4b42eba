package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/preeclampsia-risk-mcp/internal/domain"
)

// SQLiteStore implements Store on a local SQLite file.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(s scanner) (*Record, error) {
	r := &Record{}
	var category string
	var featuresJSON []byte

	err := s.Scan(
		&r.ID, &r.PatientRef, &category, &r.RawLabel, &r.BMI, &featuresJSON,
		&r.ModelName, &r.ModelVersion, &r.VocabularyVersion, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Category = domain.DiagnosisCategory(category)
	if len(featuresJSON) > 0 {
		if err := json.Unmarshal(featuresJSON, &r.Features); err != nil {
			return nil, fmt.Errorf("failed to decode features: %w", err)
		}
	}
	return r, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		id TEXT PRIMARY KEY,
		patient_ref TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		raw_label TEXT NOT NULL,
		bmi REAL NOT NULL,
		features TEXT NOT NULL,
		model_name TEXT NOT NULL DEFAULT '',
		model_version TEXT NOT NULL DEFAULT '',
		vocabulary_version TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assessments_category ON assessments(category);
	CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at);
	CREATE INDEX IF NOT EXISTS idx_assessments_patient_ref ON assessments(patient_ref);
	`

	_, err := db.Exec(schema)
	return err
}

const selectColumns = `id, patient_ref, category, raw_label, bmi, features,
	model_name, model_version, vocabulary_version, created_at`

func (s *SQLiteStore) Save(ctx context.Context, result *domain.AssessmentResult) error {
	rec := NewRecord(result)
	featuresJSON, err := json.Marshal(rec.Features)
	if err != nil {
		return fmt.Errorf("failed to encode features: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessments (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID, rec.PatientRef, string(rec.Category), rec.RawLabel, rec.BMI, string(featuresJSON),
		rec.ModelName, rec.ModelVersion, rec.VocabularyVersion, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert assessment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM assessments WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("assessment %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan: %w", err)
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	limit, offset = normalizePage(limit, offset)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM assessments
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	result := []*Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assessments").Scan(&count)
	return count, err
}

func (s *SQLiteStore) CountByCategory(ctx context.Context) (map[domain.DiagnosisCategory]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT category, COUNT(*) FROM assessments GROUP BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to count by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.DiagnosisCategory]int64)
	for rows.Next() {
		var category string
		var n int64
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		counts[domain.DiagnosisCategory(category)] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) ExportJSON(ctx context.Context, w io.Writer) error {
	return exportJSON(ctx, s, w)
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
