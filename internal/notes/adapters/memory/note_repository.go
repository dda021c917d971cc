// Package memory provides an in-process note store, used by tests and by the
// "memory" storage driver.
package memory

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"cleannote/internal/notes/adapters/watch"
	"cleannote/internal/notes/domain/entities"
	"cleannote/internal/notes/ports/repositories"
	"cleannote/pkg/logger"
)

// NoteRepository keeps notes in a map keyed by id.
type NoteRepository struct {
	mu     sync.Mutex
	notes  map[int64]entities.Note
	nextID int64
	hub    *watch.Hub
}

var _ repositories.NoteRepository = (*NoteRepository)(nil)

// NewNoteRepository creates an empty store. Ids start at 1.
func NewNoteRepository() *NoteRepository {
	return &NoteRepository{
		notes:  make(map[int64]entities.Note),
		nextID: 1,
		hub:    watch.NewHub(),
	}
}

// Insert stores note, replacing an existing note with the same id.
func (r *NoteRepository) Insert(ctx context.Context, note entities.Note) (int64, error) {
	log := logger.Log(ctx).With(zap.String("method", "memory.NoteRepository.Insert"))

	r.mu.Lock()
	defer r.mu.Unlock()

	id, saved := note.ID.Value()
	if !saved {
		id = r.nextID
	}
	if id >= r.nextID {
		r.nextID = id + 1
	}
	r.notes[id] = note.WithID(id)

	log.Debug(ctx, "note stored", zap.Int64("noteID", id), zap.Bool("replaced", saved))
	r.hub.Publish(ctx, r.snapshotLocked())
	return id, nil
}

// Delete removes the note with note's id. Unknown ids are ignored.
func (r *NoteRepository) Delete(ctx context.Context, note entities.Note) error {
	log := logger.Log(ctx).With(zap.String("method", "memory.NoteRepository.Delete"))

	id, saved := note.ID.Value()
	if !saved {
		log.Debug(ctx, "unsaved note, nothing to delete")
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notes[id]; !ok {
		log.Debug(ctx, "note not found", zap.Int64("noteID", id))
		return nil
	}
	delete(r.notes, id)

	log.Debug(ctx, "note deleted", zap.Int64("noteID", id))
	r.hub.Publish(ctx, r.snapshotLocked())
	return nil
}

// GetByID returns nil when id is unknown.
func (r *NoteRepository) GetByID(_ context.Context, id int64) (*entities.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	note, ok := r.notes[id]
	if !ok {
		return nil, nil
	}
	return &note, nil
}

// ListAll subscribes to note snapshots.
func (r *NoteRepository) ListAll(ctx context.Context) (<-chan []entities.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.hub.Subscribe(ctx, r.snapshotLocked()), nil
}

// Subscribers reports the number of live ListAll subscriptions.
func (r *NoteRepository) Subscribers() int {
	return r.hub.Len()
}

// Close releases all subscribers.
func (r *NoteRepository) Close() {
	r.hub.Close()
}

func (r *NoteRepository) snapshotLocked() []entities.Note {
	ids := make([]int64, 0, len(r.notes))
	for id := range r.notes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	snap := make([]entities.Note, 0, len(ids))
	for _, id := range ids {
		snap = append(snap, r.notes[id])
	}
	return snap
}
