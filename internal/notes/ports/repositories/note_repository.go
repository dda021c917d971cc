// Package repositories defines repository interfaces for the notes service.
package repositories

import (
	"context"

	"cleannote/internal/notes/domain/entities"
)

// NoteRepository is the note store contract shared by every backend.
type NoteRepository interface {
	// Insert stores note, replacing any note with the same saved id, and
	// returns the id the note is stored under. Unsaved notes get a fresh id.
	Insert(ctx context.Context, note entities.Note) (int64, error)
	// Delete removes the note with note's id. Absent or unsaved ids are a no-op.
	Delete(ctx context.Context, note entities.Note) error
	// GetByID returns nil, nil when no note has id.
	GetByID(ctx context.Context, id int64) (*entities.Note, error)
	// ListAll emits the current set of notes, then a complete new set after
	// every change. The channel is closed once ctx is done. Snapshots are
	// shared between subscribers and must not be modified.
	ListAll(ctx context.Context) (<-chan []entities.Note, error)
}
