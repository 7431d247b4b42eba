package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preeclampsia-risk-mcp/internal/domain"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "history.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist")
	assert.Equal(t, dbPath, store.Path())
	assert.NoError(t, store.Ping(context.Background()))
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	result := sampleResult("a1", domain.MildPreeclampsia, time.Now())
	require.NoError(t, store.Save(ctx, result))

	rec, err := store.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "ANC-a1", rec.PatientRef)
	assert.Equal(t, domain.MildPreeclampsia, rec.Category)
	assert.Equal(t, 23.44, rec.BMI)
	assert.Equal(t, 145.0, rec.Features["systolic"])
	assert.Equal(t, "1.0.0", rec.ModelVersion)
	assert.Equal(t, "v1", rec.VocabularyVersion)
	assert.WithinDuration(t, result.AssessedAt, rec.CreatedAt, time.Second)
}

func TestSQLiteStore_SaveIsIdempotent(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	result := sampleResult("dup", domain.Normal, time.Now())
	require.NoError(t, store.Save(ctx, result))
	require.NoError(t, store.Save(ctx, result))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSQLiteStore_GetNotFound(t *testing.T) {
	store := createTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	for i, c := range []domain.DiagnosisCategory{domain.Normal, domain.MildPreeclampsia, domain.SeverePreeclampsia} {
		require.NoError(t, store.Save(ctx, sampleResult(string(rune('a'+i)), c, base.Add(time.Duration(i)*time.Hour))))
	}

	all, err := store.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "a", all[2].ID)

	page, err := store.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b", page[0].ID)

	empty, err := store.List(ctx, 10, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLiteStore_CountByCategory(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Save(ctx, sampleResult("1", domain.Normal, now)))
	require.NoError(t, store.Save(ctx, sampleResult("2", domain.Normal, now)))
	require.NoError(t, store.Save(ctx, sampleResult("3", domain.SeverePreeclampsia, now)))

	counts, err := store.CountByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[domain.Normal])
	assert.Equal(t, int64(1), counts[domain.SeverePreeclampsia])
	assert.Zero(t, counts[domain.MildPreeclampsia])
}

func TestSQLiteStore_ExportJSON(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleResult("x", domain.Unrecognized, time.Now())))

	var buf bytes.Buffer
	require.NoError(t, store.ExportJSON(ctx, &buf))

	var export Export
	require.NoError(t, json.Unmarshal(buf.Bytes(), &export))
	assert.Equal(t, "1.0", export.Version)
	assert.Equal(t, 1, export.Count)
	assert.Equal(t, domain.Unrecognized, export.Assessments[0].Category)
}

func TestSQLiteStore_QueryErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := &SQLiteStore{db: db}
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO assessments").WillReturnError(errors.New("database is locked"))
	err = store.Save(ctx, sampleResult("e", domain.Normal, time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert assessment")

	mock.ExpectQuery("SELECT (.+) FROM assessments").WillReturnError(errors.New("disk I/O error"))
	_, err = store.List(ctx, 10, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query")

	mock.ExpectQuery("SELECT category, COUNT").WillReturnError(errors.New("disk I/O error"))
	_, err = store.CountByCategory(ctx)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_CorruptFeatures(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "patient_ref", "category", "raw_label", "bmi", "features",
		"model_name", "model_version", "vocabulary_version", "created_at",
	}).AddRow("z", "", "NORMAL", "normal", 20.1, "{broken", "m", "1", "v1", time.Now())
	mock.ExpectQuery("SELECT (.+) FROM assessments WHERE id").WithArgs("z").WillReturnRows(rows)

	store := &SQLiteStore{db: db}
	_, err = store.Get(context.Background(), "z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode features")
}

func TestNormalizePage(t *testing.T) {
	limit, offset := normalizePage(0, -5)
	assert.Equal(t, DefaultListLimit, limit)
	assert.Equal(t, 0, offset)

	limit, _ = normalizePage(10000, 0)
	assert.Equal(t, MaxListLimit, limit)

	limit, _ = normalizePage(maxExportLimit, 0)
	assert.Equal(t, maxExportLimit, limit)
}

func TestNoopStore(t *testing.T) {
	var s Store = NoopStore{}
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleResult("n", domain.Normal, time.Now())))
	_, err := s.Get(ctx, "n")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := s.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
