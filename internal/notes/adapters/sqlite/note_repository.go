// Package sqlite stores notes in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"cleannote/internal/notes/adapters/watch"
	"cleannote/internal/notes/domain/entities"
	"cleannote/internal/notes/ports/repositories"
	"cleannote/pkg/logger"
)

// DB is the subset of *sql.DB the repository uses.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NoteRepository implements repositories.NoteRepository on SQLite.
type NoteRepository struct {
	db  DB
	mu  sync.Mutex
	hub *watch.Hub
}

var _ repositories.NoteRepository = (*NoteRepository)(nil)

// NewNoteRepository creates a repository over db. The schema must already exist.
func NewNoteRepository(db DB) *NoteRepository {
	return &NoteRepository{db: db, hub: watch.NewHub()}
}

// Insert stores note. A saved id replaces the existing row.
func (r *NoteRepository) Insert(ctx context.Context, note entities.Note) (int64, error) {
	log := logger.Log(ctx).With(zap.String("method", "sqlite.NoteRepository.Insert"))

	query, args, err := buildInsertQuery(note)
	if err != nil {
		return 0, fmt.Errorf("failed to build insert query: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error(ctx, "failed to insert note", zap.Error(err))
		return 0, fmt.Errorf("failed to insert note: %w", err)
	}

	noteID, saved := note.ID.Value()
	if !saved {
		noteID, err = result.LastInsertId()
		if err != nil {
			log.Error(ctx, "failed to read inserted id", zap.Error(err))
			return 0, fmt.Errorf("failed to read inserted id: %w", err)
		}
	}

	log.Debug(ctx, "note stored", zap.Int64("noteID", noteID))
	r.publishLocked(ctx)
	return noteID, nil
}

// Delete removes the row with note's id. Missing rows are ignored.
func (r *NoteRepository) Delete(ctx context.Context, note entities.Note) error {
	log := logger.Log(ctx).With(zap.String("method", "sqlite.NoteRepository.Delete"))

	id, saved := note.ID.Value()
	if !saved {
		return nil
	}

	query, args, err := buildDeleteQuery(id)
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error(ctx, "failed to delete note", zap.Error(err))
		return fmt.Errorf("failed to delete note: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		log.Warn(ctx, "rows affected unavailable", zap.Error(err))
	} else if affected == 0 {
		log.Debug(ctx, "note not found", zap.Int64("noteID", id))
		return nil
	}

	r.publishLocked(ctx)
	return nil
}

// GetByID returns nil when no row has id.
func (r *NoteRepository) GetByID(ctx context.Context, id int64) (*entities.Note, error) {
	log := logger.Log(ctx).With(zap.String("method", "sqlite.NoteRepository.GetByID"))

	query, args, err := buildGetByIDQuery(id)
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	note, err := scanNote(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

// Close releases all subscribers. The database handle is owned by the caller.
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
	log := logger.Log(ctx).With(zap.String("method", "sqlite.NoteRepository.list"))

	query, args, err := buildListAllQuery()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error(ctx, "failed to list notes", zap.Error(err))
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]entities.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return notes, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (entities.Note, error) {
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
