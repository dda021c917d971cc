package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleannote/internal/notes/config"
	"cleannote/internal/notes/db"
)

const sqliteMigrations = "../../../migrations/notes/sqlite"

func TestNewSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.SQLiteConfig{
		Path:          filepath.Join(t.TempDir(), "nested", "notes.db"),
		MigrationsDir: sqliteMigrations,
	}

	database, err := db.NewSQLite(ctx, cfg)
	require.NoError(t, err)
	defer func() { _ = database.Close(ctx) }()

	var name string
	err = database.DB().QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'notes'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "notes", name)

	again, err := db.NewSQLite(ctx, cfg)
	require.NoError(t, err, "reopening an up-to-date database succeeds")
	require.NoError(t, again.Close(ctx))
}

func TestNewSQLite_BadMigrations(t *testing.T) {
	ctx := context.Background()
	cfg := &config.SQLiteConfig{
		Path:          filepath.Join(t.TempDir(), "notes.db"),
		MigrationsDir: filepath.Join(t.TempDir(), "missing"),
	}

	database, err := db.NewSQLite(ctx, cfg)
	require.Error(t, err)
	assert.Nil(t, database)
	assert.Contains(t, err.Error(), db.ErrDBMigrations)
}

func TestNewPostgres_Unreachable(t *testing.T) {
	ctx := context.Background()
	cfg := &config.PostgresConfig{
		Host:          "127.0.0.1",
		Port:          1,
		User:          "u",
		Password:      "p",
		Database:      "d",
		MinConn:       1,
		MaxConn:       1,
		MigrationsDir: "../../../migrations/notes/postgres",
	}

	database, err := db.NewPostgres(ctx, cfg)
	require.Error(t, err)
	assert.Nil(t, database)
}
