// Package db opens the notes databases and brings their schema up to date.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"cleannote/internal/notes/config"
	"cleannote/pkg/db/migrations"
	"cleannote/pkg/db/postgres"
	"cleannote/pkg/db/sqlite"
	"cleannote/pkg/logger"
	"cleannote/pkg/resilience"
)

const (
	LogDBInitializing    = "initializing notes database"
	LogDBInitialized     = "notes database initialized successfully"
	LogMigrationStarting = "starting database migrations for notes service"
)

const maxConnectBackoff = 5 * time.Second

const (
	ErrDBMigrations      = "failed to apply notes database migrations"
	ErrDBConnection      = "failed to connect to notes database"
	ErrDBCheckConnection = "error checking the database connection"
)

// Postgres is a migrated PostgreSQL pool.
type Postgres struct {
	database *postgres.Database
}

// NewPostgres applies migrations from cfg.MigrationsDir and opens the pool,
// retrying up to cfg.ConnectAttempts times.
func NewPostgres(ctx context.Context, cfg *config.PostgresConfig) (*Postgres, error) {
	log := logger.Log(ctx)

	log.Info(ctx, LogDBInitializing,
		zap.String("driver", config.DriverPostgres),
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.Int("min_conn", cfg.MinConn),
		zap.Int("max_conn", cfg.MaxConn))

	retry := resilience.NewRetry("postgres-connect", resilience.RetryConfig{
		MaxAttempts:    cfg.ConnectAttempts,
		InitialBackoff: cfg.ConnectBackoff,
		MaxBackoff:     maxConnectBackoff,
		BackoffFactor:  2,
	})

	var database *postgres.Database
	err := retry.Execute(ctx, func(ctx context.Context) error {
		if err := migrate(ctx, cfg.MigrationsDir, cfg.GetConnectionURL()); err != nil {
			return err
		}
		var err error
		database, err = postgres.New(ctx, cfg.GetDSN(), cfg.MinConn, cfg.MaxConn)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrDBConnection, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info(ctx, LogDBInitialized)
	return &Postgres{database: database}, nil
}

// Close releases the pool.
func (db *Postgres) Close(ctx context.Context) {
	db.database.Close(ctx)
}

// Pool returns the pgx pool.
func (db *Postgres) Pool() *pgxpool.Pool {
	return db.database.Pool()
}

// Ping checks the connection.
func (db *Postgres) Ping(ctx context.Context) error {
	if err := db.database.Ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrDBCheckConnection, err)
	}
	return nil
}

// NewSQLite opens the database file at cfg.Path and applies migrations.
func NewSQLite(ctx context.Context, cfg *config.SQLiteConfig) (*sqlite.Database, error) {
	log := logger.Log(ctx)
	log.Info(ctx, LogDBInitializing,
		zap.String("driver", config.DriverSQLite),
		zap.String("path", cfg.Path))

	database, err := sqlite.New(ctx, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrDBConnection, err)
	}

	if err := migrate(ctx, cfg.MigrationsDir, sqlite.MigrationURL(cfg.Path)); err != nil {
		_ = database.Close(ctx)
		return nil, err
	}

	log.Info(ctx, LogDBInitialized)
	return database, nil
}

func migrate(ctx context.Context, dir, databaseURL string) error {
	source, err := migrations.SourceURL(dir)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrDBMigrations, err)
	}

	logger.Log(ctx).Info(ctx, LogMigrationStarting, zap.String("migrations_path", source))
	if err := migrations.Apply(ctx, source, databaseURL); err != nil {
		return fmt.Errorf("%s: %w", ErrDBMigrations, err)
	}
	return nil
}
