// Package storage builds the note repository selected by configuration.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cleannote/internal/notes/adapters/cache"
	"cleannote/internal/notes/adapters/memory"
	"cleannote/internal/notes/adapters/postgres"
	"cleannote/internal/notes/adapters/sqlite"
	"cleannote/internal/notes/config"
	"cleannote/internal/notes/db"
	"cleannote/internal/notes/ports/repositories"
	"cleannote/pkg/db/redis"
	"cleannote/pkg/logger"
	"cleannote/pkg/resilience"
	"cleannote/pkg/shutdown"
)

const (
	LogStoreReady  = "note store ready"
	LogCacheActive = "redis note cache enabled"

	ErrOpenStore = "failed to open note store"
	ErrStoreDown = "note store unavailable"
	ErrOpenCache = "failed to open note cache"
)

type closer interface {
	Close()
}

// Storage is an opened note repository plus the hooks that release it.
type Storage struct {
	Repository repositories.NoteRepository
	hooks      []shutdown.Hook
	ping       func(context.Context) error
}

// Ping checks the database behind the store. The in-memory store is always up.
func (s *Storage) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	if err := s.ping(ctx); err != nil {
		return fmt.Errorf("%s: %w", ErrStoreDown, err)
	}
	return nil
}

// Hooks returns the cleanup functions in release order.
func (s *Storage) Hooks() []shutdown.Hook {
	return s.hooks
}

// Close runs every hook and returns the first error.
func (s *Storage) Close(ctx context.Context) error {
	var first error
	for _, hook := range s.hooks {
		if err := hook(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open connects the configured store and, when enabled, the Redis cache.
func Open(ctx context.Context, cfg *config.Config) (*Storage, error) {
	log := logger.Log(ctx).With(zap.String("driver", cfg.Store.Driver))

	s := &Storage{}
	var base repositories.NoteRepository

	switch cfg.Store.Driver {
	case config.DriverMemory:
		repo := memory.NewNoteRepository()
		s.addCloser(repo)
		base = repo

	case config.DriverPostgres:
		database, err := db.NewPostgres(ctx, &cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrOpenStore, err)
		}
		repo := postgres.NewNoteRepository(database.Pool())
		s.addCloser(repo)
		s.ping = database.Ping
		s.hooks = append(s.hooks, func(ctx context.Context) error {
			database.Close(ctx)
			return nil
		})
		base = repo

	case config.DriverSQLite:
		database, err := db.NewSQLite(ctx, &cfg.SQLite)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrOpenStore, err)
		}
		repo := sqlite.NewNoteRepository(database.DB())
		s.addCloser(repo)
		s.ping = database.Ping
		s.hooks = append(s.hooks, database.Close)
		base = repo

	default:
		return nil, fmt.Errorf("%s: %w: %q", ErrOpenStore, config.ErrUnknownDriver, cfg.Store.Driver)
	}

	s.Repository = base
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, cfg.Redis.ClientConfig())
		if err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("%s: %w", ErrOpenCache, err)
		}
		s.hooks = append(s.hooks, func(context.Context) error {
			return client.Close()
		})
		breaker := resilience.NewCircuitBreaker("redis-note-cache", cfg.Redis.BreakerConfig())
		s.Repository = cache.NewNoteRepository(base, client.RawClient(), cfg.Redis.TTL, cache.WithBreaker(breaker))
		log.Info(ctx, LogCacheActive, zap.Duration("ttl", cfg.Redis.TTL))
	}

	log.Info(ctx, LogStoreReady)
	return s, nil
}

func (s *Storage) addCloser(c closer) {
	s.hooks = append(s.hooks, func(context.Context) error {
		c.Close()
		return nil
	})
}
