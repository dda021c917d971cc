package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// ErrUnknownDriver is returned for an unsupported store driver.
var ErrUnknownDriver = errors.New("unknown store driver")

// StoreConfig selects the note store backend.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"NOTES_STORE_DRIVER" env-default:"sqlite"`
}

// Validate checks Driver.
func (s *StoreConfig) Validate() error {
	if !slices.Contains([]string{DriverSQLite, DriverPostgres, DriverMemory}, s.Driver) {
		return fmt.Errorf("%w: %q", ErrUnknownDriver, s.Driver)
	}
	return nil
}

// PostgresConfig holds the PostgreSQL connection settings.
type PostgresConfig struct {
	Host          string `yaml:"host" env:"NOTES_POSTGRES_HOST" env-default:"0.0.0.0"`
	Port          int    `yaml:"port" env:"NOTES_POSTGRES_PORT" env-default:"5433"`
	User          string `yaml:"user" env:"NOTES_POSTGRES_USER" env-default:"postgres"`
	Password      string `yaml:"password" env:"NOTES_POSTGRES_PASSWORD" env-default:"postgres"`
	Database      string `yaml:"database" env:"NOTES_POSTGRES_DB" env-default:"notes"`
	MinConn       int    `yaml:"min_conn" env:"NOTES_POSTGRES_MIN_CONN" env-default:"1"`
	MaxConn       int    `yaml:"max_conn" env:"NOTES_POSTGRES_MAX_CONN" env-default:"10"`
	MigrationsDir string `yaml:"migrations_dir" env:"NOTES_POSTGRES_MIGRATIONS_DIR" env-default:"migrations/notes/postgres"`
	// Startup attempts while the server is still coming up.
	ConnectAttempts int           `yaml:"connect_attempts" env:"NOTES_POSTGRES_CONNECT_ATTEMPTS" env-default:"5"`
	ConnectBackoff  time.Duration `yaml:"connect_backoff" env:"NOTES_POSTGRES_CONNECT_BACKOFF" env-default:"500ms"`
}

// GetDSN returns the pgx connection string.
func (p *PostgresConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.Database)
}

// GetConnectionURL returns the URL form used by migrations.
func (p *PostgresConfig) GetConnectionURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		p.User, p.Password, p.Host, p.Port, p.Database)
}

// SQLiteConfig points at the local database file.
type SQLiteConfig struct {
	Path          string `yaml:"path" env:"NOTES_SQLITE_PATH" env-default:"notes.db"`
	MigrationsDir string `yaml:"migrations_dir" env:"NOTES_SQLITE_MIGRATIONS_DIR" env-default:"migrations/notes/sqlite"`
}
