// Package postgres provides PostgreSQL implementations of repositories.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"cleannote/internal/notes/adapters/watch"
	"cleannote/internal/notes/domain/entities"
	"cleannote/internal/notes/ports/repositories"
	"cleannote/pkg/logger"
)

// Pool is the subset of pgxpool.Pool the repository needs.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const (
	queryInsert = `INSERT INTO notes (title, content, timestamp_ms, color) VALUES ($1, $2, $3, $4) RETURNING id`
	queryUpsert = `INSERT INTO notes (id, title, content, timestamp_ms, color) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, content = EXCLUDED.content,
timestamp_ms = EXCLUDED.timestamp_ms, color = EXCLUDED.color RETURNING id`
	querySyncSequence = `SELECT setval(pg_get_serial_sequence('notes', 'id'), (SELECT MAX(id) FROM notes))`
	queryGetByID      = `SELECT id, title, content, timestamp_ms, color FROM notes WHERE id = $1`
	queryListAll      = `SELECT id, title, content, timestamp_ms, color FROM notes ORDER BY id`
	queryDelete       = `DELETE FROM notes WHERE id = $1`
)

// NoteRepository implements repositories.NoteRepository on PostgreSQL.
// Writes are serialised so every subscriber sees snapshots in commit order.
type NoteRepository struct {
	pool Pool
	mu   sync.Mutex
	hub  *watch.Hub
}

var _ repositories.NoteRepository = (*NoteRepository)(nil)

// NewNoteRepository creates a note repository over pool.
func NewNoteRepository(pool Pool) *NoteRepository {
	return &NoteRepository{pool: pool, hub: watch.NewHub()}
}

// Insert stores note, replacing the row with the same id if there is one.
func (r *NoteRepository) Insert(ctx context.Context, note entities.Note) (int64, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Insert"))

	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		noteID int64
		err    error
	)
	if id, saved := note.ID.Value(); saved {
		log.Debug(ctx, "upserting note", zap.Int64("noteID", id))
		err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
			if err := tx.QueryRow(ctx, queryUpsert,
				id, note.Title, note.Content, note.Timestamp, int64(note.Color),
			).Scan(&noteID); err != nil {
				return err
			}
			// explicit ids bypass the sequence
			_, err := tx.Exec(ctx, querySyncSequence)
			return err
		})
	} else {
		log.Debug(ctx, "creating new note")
		err = r.pool.QueryRow(ctx, queryInsert,
			note.Title, note.Content, note.Timestamp, int64(note.Color),
		).Scan(&noteID)
	}
	if err != nil {
		log.Error(ctx, "failed to insert note", zap.Error(err))
		return 0, fmt.Errorf("failed to insert note: %w", err)
	}

	log.Debug(ctx, "note stored", zap.Int64("noteID", noteID))
	r.publishLocked(ctx)
	return noteID, nil
}

// Delete removes the note with note's id. Missing rows are not an error.
func (r *NoteRepository) Delete(ctx context.Context, note entities.Note) error {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.Delete"))

	id, saved := note.ID.Value()
	if !saved {
		log.Debug(ctx, "unsaved note, nothing to delete")
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.pool.Exec(ctx, queryDelete, id)
	if err != nil {
		log.Error(ctx, "failed to delete note", zap.Error(err))
		return fmt.Errorf("failed to delete note: %w", err)
	}

	if result.RowsAffected() == 0 {
		log.Debug(ctx, "note not found", zap.Int64("noteID", id))
		return nil
	}

	r.publishLocked(ctx)
	return nil
}

// GetByID returns the note with id or nil when there is none.
func (r *NoteRepository) GetByID(ctx context.Context, id int64) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.GetByID"))
	log.Debug(ctx, "getting note", zap.Int64("noteID", id))

	note, err := scanNote(r.pool.QueryRow(ctx, queryGetByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug(ctx, "note not found", zap.Int64("noteID", id))
			return nil, nil
		}
		log.Error(ctx, "failed to get note", zap.Error(err))
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	return &note, nil
}

// ListAll emits every note now and after each change made through r.
func (r *NoteRepository) ListAll(ctx context.Context) (<-chan []entities.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	notes, err := r.list(ctx)
	if err != nil {
		return nil, err
	}
	return r.hub.Subscribe(ctx, notes), nil
}

// Close releases all subscribers. The pool is owned by the caller.
func (r *NoteRepository) Close() {
	r.hub.Close()
}

func (r *NoteRepository) publishLocked(ctx context.Context) {
	notes, err := r.list(ctx)
	if err != nil {
		logger.Log(ctx).Warn(ctx, "snapshot skipped", zap.Error(err))
		return
	}
	r.hub.Publish(ctx, notes)
}

func (r *NoteRepository) list(ctx context.Context) ([]entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "NoteRepository.list"))

	rows, err := r.pool.Query(ctx, queryListAll)
	if err != nil {
		log.Error(ctx, "failed to list notes", zap.Error(err))
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]entities.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			log.Error(ctx, "failed to scan note", zap.Error(err))
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}

	if err := rows.Err(); err != nil {
		log.Error(ctx, "error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return notes, nil
}

func scanNote(row pgx.Row) (entities.Note, error) {
	var (
		id    int64
		color int64
		note  entities.Note
	)
	if err := row.Scan(&id, &note.Title, &note.Content, &note.Timestamp, &color); err != nil {
		return entities.Note{}, err
	}
	note.ID = entities.SavedID(id)
	note.Color = entities.Color(color)
	return note, nil
}
