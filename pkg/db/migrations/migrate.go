// Package migrations applies golang-migrate migrations for the supported SQL engines.
package migrations

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"cleannote/pkg/logger"
)

const (
	ErrCreateMigrationInstance = "failed to create migration instance"
	ErrApplyMigrations         = "failed to apply migrations"
	ErrResolvePath             = "failed to resolve migrations path"

	LogMigrationsApplied = "database migrations applied"
	LogNoChange          = "database schema is up to date"

	filePrefix = "file://"
)

// SourceURL turns a directory into a file:// source URL, making it absolute first.
func SourceURL(dir string) (string, error) {
	if strings.HasPrefix(dir, filePrefix) {
		return dir, nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrResolvePath, err)
	}
	return filePrefix + filepath.ToSlash(abs), nil
}

// Apply runs every pending up migration from sourceURL against databaseURL.
// databaseURL uses the golang-migrate scheme: postgres://... or sqlite3://...
func Apply(ctx context.Context, sourceURL, databaseURL string) error {
	log := logger.Log(ctx).With(zap.String("source", sourceURL))

	m, err := migrate.New(sourceURL, databaseURL)
	if err != nil {
		log.Error(ctx, ErrCreateMigrationInstance, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrCreateMigrationInstance, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug(ctx, LogNoChange)
			return nil
		}
		log.Error(ctx, ErrApplyMigrations, zap.Error(err))
		return fmt.Errorf("%s: %w", ErrApplyMigrations, err)
	}

	log.Info(ctx, LogMigrationsApplied)
	return nil
}
