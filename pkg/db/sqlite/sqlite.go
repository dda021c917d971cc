// Package sqlite opens the embedded SQLite database used by the local note store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"cleannote/pkg/logger"
)

const (
	LogOpening = "opening SQLite database"
	LogOpened  = "SQLite database ready"
	LogClosing = "closing SQLite database"

	ErrCreateDir = "failed to create database directory"
	ErrOpen      = "failed to open SQLite database"
	ErrPing      = "failed to ping SQLite database"
	ErrClose     = "failed to close SQLite database"

	driverName = "sqlite3"
)

// Database is an open SQLite handle.
type Database struct {
	db   *sql.DB
	path string
}

// New opens (creating if needed) the database file at path.
func New(ctx context.Context, path string) (*Database, error) {
	log := logger.Log(ctx).With(zap.String("path", path))
	log.Info(ctx, LogOpening)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error(ctx, ErrCreateDir, zap.Error(err))
			return nil, fmt.Errorf("%s: %w", ErrCreateDir, err)
		}
	}

	db, err := sql.Open(driverName, DSN(path))
	if err != nil {
		log.Error(ctx, ErrOpen, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrOpen, err)
	}
	// One writer connection avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		log.Error(ctx, ErrPing, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrPing, err)
	}

	log.Info(ctx, LogOpened)
	return &Database{db: db, path: path}, nil
}

// DSN returns the go-sqlite3 connection string for path.
func DSN(path string) string {
	return "file:" + path + "?_busy_timeout=5000&_foreign_keys=on"
}

// MigrationURL returns the golang-migrate database URL for path.
func MigrationURL(path string) string {
	return "sqlite3://" + path
}

// DB exposes the database/sql handle.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.path
}

// Ping checks that the database file is still usable.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrPing, err)
	}
	return nil
}

// Close closes the handle.
func (d *Database) Close(ctx context.Context) error {
	logger.Log(ctx).Info(ctx, LogClosing, zap.String("path", d.path))
	if err := d.db.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrClose, err)
	}
	return nil
}
