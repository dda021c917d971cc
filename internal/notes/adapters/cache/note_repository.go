// Package cache adds a Redis read-through cache in front of a note repository.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cleannote/internal/notes/domain/entities"
	"cleannote/internal/notes/ports/repositories"
	"cleannote/pkg/logger"
	"cleannote/pkg/resilience"
)

const (
	LogCacheHit        = "note served from cache"
	LogCacheMiss       = "note cache miss"
	ErrorFailedToGet   = "failed to get note from redis"
	ErrorFailedToSet   = "failed to cache note in redis"
	ErrorFailedToEvict = "failed to evict note from redis"
	ErrorCorruptEntry  = "cached note is not valid JSON"

	keyPrefix = "note:"
)

const lockStripes = 64

// NoteRepository caches GetByID results. Writes go to the wrapped repository
// first and then evict the affected key. Redis failures never fail a call.
//
// A cache fill (store read + SET) and a write to the same id (store write +
// DEL) hold the same stripe lock, so a fill can never re-cache a row that a
// finished write has replaced or deleted.
type NoteRepository struct {
	next    repositories.NoteRepository
	client  redis.Cmdable
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	locks   [lockStripes]sync.Mutex
}

var _ repositories.NoteRepository = (*NoteRepository)(nil)

// Option configures a NoteRepository.
type Option func(*NoteRepository)

// WithBreaker skips Redis entirely while cb is open.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(r *NoteRepository) {
		r.breaker = cb
	}
}

// NewNoteRepository wraps next. A zero ttl keeps entries until evicted.
func NewNoteRepository(next repositories.NoteRepository, client redis.Cmdable, ttl time.Duration, opts ...Option) *NoteRepository {
	r := &NoteRepository{next: next, client: client, ttl: ttl}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key returns the Redis key for a note id.
func Key(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

// Insert stores note and evicts its cache entry.
func (r *NoteRepository) Insert(ctx context.Context, note entities.Note) (int64, error) {
	// new notes have no cache entry to race with
	if id, saved := note.ID.Value(); saved {
		unlock := r.lock(id)
		defer unlock()
	}

	id, err := r.next.Insert(ctx, note)
	if err != nil {
		return 0, err
	}
	r.evict(ctx, id)
	return id, nil
}

// Delete removes note and evicts its cache entry.
func (r *NoteRepository) Delete(ctx context.Context, note entities.Note) error {
	id, saved := note.ID.Value()
	if !saved {
		return r.next.Delete(ctx, note)
	}

	unlock := r.lock(id)
	defer unlock()

	if err := r.next.Delete(ctx, note); err != nil {
		return err
	}
	r.evict(ctx, id)
	return nil
}

// GetByID checks Redis before the wrapped repository. Misses are not cached.
func (r *NoteRepository) GetByID(ctx context.Context, id int64) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "cache.NoteRepository.GetByID"), zap.Int64("noteID", id))

	if note, ok := r.lookup(ctx, log, id); ok {
		log.Debug(ctx, LogCacheHit)
		return note, nil
	}
	log.Debug(ctx, LogCacheMiss)

	unlock := r.lock(id)
	defer unlock()

	note, err := r.next.GetByID(ctx, id)
	if err != nil || note == nil {
		return note, err
	}

	data, err := json.Marshal(note)
	if err != nil {
		log.Warn(ctx, ErrorFailedToSet, zap.Error(err))
		return note, nil
	}
	if err := r.call(ctx, func(ctx context.Context) error {
		return r.client.Set(ctx, Key(id), data, r.ttl).Err()
	}); err != nil {
		log.Warn(ctx, ErrorFailedToSet, zap.Error(err))
	}
	return note, nil
}

// ListAll is not cached.
func (r *NoteRepository) ListAll(ctx context.Context) (<-chan []entities.Note, error) {
	return r.next.ListAll(ctx)
}

func (r *NoteRepository) lookup(ctx context.Context, log *logger.Logger, id int64) (*entities.Note, bool) {
	var data []byte
	err := r.call(ctx, func(ctx context.Context) error {
		var err error
		data, err = r.client.Get(ctx, Key(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			return errMiss
		}
		return err
	})
	if err != nil {
		if !errors.Is(err, errMiss) {
			log.Warn(ctx, ErrorFailedToGet, zap.Error(err))
		}
		return nil, false
	}

	var note entities.Note
	if err := json.Unmarshal(data, &note); err != nil {
		log.Warn(ctx, ErrorCorruptEntry, zap.Error(err))
		r.evict(ctx, id)
		return nil, false
	}
	return &note, true
}

func (r *NoteRepository) evict(ctx context.Context, id int64) {
	if err := r.call(ctx, func(ctx context.Context) error {
		return r.client.Del(ctx, Key(id)).Err()
	}); err != nil {
		logger.Log(ctx).Warn(ctx, ErrorFailedToEvict, zap.Int64("noteID", id), zap.Error(fmt.Errorf("del %s: %w", Key(id), err)))
	}
}

func (r *NoteRepository) lock(id int64) func() {
	mu := &r.locks[uint64(id)%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// errMiss marks a missing key, which is not a Redis failure.
var errMiss = errors.New("cache miss")

func (r *NoteRepository) call(ctx context.Context, fn func(context.Context) error) error {
	if r.breaker == nil {
		return fn(ctx)
	}
	var miss bool
	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		err := fn(ctx)
		if errors.Is(err, errMiss) {
			miss = true
			return nil
		}
		return err
	})
	if miss {
		return errMiss
	}
	return err
}
