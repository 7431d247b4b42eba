package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// SchemaStatus describes the assessment schema as recorded by the migrator.
type SchemaStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
	Applied bool `json:"applied"`
}

// Migrator applies the assessment history schema found under a migrations
// directory.
type Migrator struct {
	m      *migrate.Migrate
	source string
	log    *logrus.Logger
}

// NewMigrator opens the migrations directory and the target database.
func NewMigrator(databaseURL, migrationsPath string, logger *logrus.Logger) (*Migrator, error) {
	source, err := sourceURL(migrationsPath)
	if err != nil {
		return nil, err
	}

	m, err := migrate.New(source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening migrator for %s: %w", migrationsPath, err)
	}

	return &Migrator{m: m, source: source, log: logger}, nil
}

func sourceURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving migrations path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("migrations path %s: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("migrations path %s is not a directory", path)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (mg *Migrator) Up(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := mg.m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		mg.log.WithField("source", mg.source).Debug("Assessment schema already current")
	case err != nil:
		return fmt.Errorf("applying migrations: %w", err)
	}

	status, err := mg.Status()
	if err != nil {
		return err
	}
	mg.log.WithFields(logrus.Fields{
		"version": status.Version,
		"dirty":   status.Dirty,
	}).Info("Assessment schema ready")
	return nil
}

// Rollback reverts the most recent migration.
func (mg *Migrator) Rollback(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := mg.m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rolling back migration: %w", err)
	}
	return nil
}

// Status reports the applied schema version. A fresh database reports
// Applied=false.
func (mg *Migrator) Status() (SchemaStatus, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return SchemaStatus{}, nil
	}
	if err != nil {
		return SchemaStatus{}, fmt.Errorf("reading schema version: %w", err)
	}
	return SchemaStatus{Version: version, Dirty: dirty, Applied: true}, nil
}

// Close releases the migration source and database handles.
func (mg *Migrator) Close() error {
	sourceErr, dbErr := mg.m.Close()
	return errors.Join(sourceErr, dbErr)
}

// Migrate brings the database described by config up to date.
func Migrate(ctx context.Context, config Config, migrationsPath string, logger *logrus.Logger) error {
	mg, err := NewMigrator(config.URL(), migrationsPath, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := mg.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close migrator")
		}
	}()
	return mg.Up(ctx)
}
