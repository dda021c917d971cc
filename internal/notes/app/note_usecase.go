// Package app implements the note use cases.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"cleannote/internal/notes/domain/entities"
	"cleannote/internal/notes/domain/validation"
	"cleannote/internal/notes/ports/repositories"
	"cleannote/pkg/logger"
)

// ErrStreamClosed is returned by GetNotes.Snapshot when the store closes the
// stream before the first emission.
var ErrStreamClosed = errors.New("note stream closed")

// AddNote validates and stores a note. It is also used to edit (same id) and
// to restore a deleted note.
type AddNote struct {
	repo repositories.NoteRepository
}

// NewAddNote creates the AddNote use case.
func NewAddNote(repo repositories.NoteRepository) *AddNote {
	return &AddNote{repo: repo}
}

// Execute returns a *validation.InvalidNoteError without touching the store
// when the title or content is blank.
func (uc *AddNote) Execute(ctx context.Context, note entities.Note) (int64, error) {
	log := logger.Log(ctx).With(zap.String("usecase", "AddNote"))

	if err := validation.Validate(note); err != nil {
		log.Debug(ctx, "note rejected", zap.Error(err))
		return 0, err
	}

	id, err := uc.repo.Insert(ctx, note)
	if err != nil {
		return 0, fmt.Errorf("failed to add note: %w", err)
	}

	log.Info(ctx, "note saved", zap.Int64("noteID", id))
	return id, nil
}

// DeleteNote removes a note. Deleting an absent note succeeds.
type DeleteNote struct {
	repo repositories.NoteRepository
}

// NewDeleteNote creates the DeleteNote use case.
func NewDeleteNote(repo repositories.NoteRepository) *DeleteNote {
	return &DeleteNote{repo: repo}
}

func (uc *DeleteNote) Execute(ctx context.Context, note entities.Note) error {
	if err := uc.repo.Delete(ctx, note); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	logger.Log(ctx).Info(ctx, "note deleted", zap.Stringer("noteID", note.ID))
	return nil
}

// GetNote looks a single note up.
type GetNote struct {
	repo repositories.NoteRepository
}

// NewGetNote creates the GetNote use case.
func NewGetNote(repo repositories.NoteRepository) *GetNote {
	return &GetNote{repo: repo}
}

// Execute returns nil, nil when id is unknown.
func (uc *GetNote) Execute(ctx context.Context, id int64) (*entities.Note, error) {
	note, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return note, nil
}

// GetNotes streams the notes sorted by a caller-chosen order.
type GetNotes struct {
	repo repositories.NoteRepository
}

// NewGetNotes creates the GetNotes use case.
func NewGetNotes(repo repositories.NoteRepository) *GetNotes {
	return &GetNotes{repo: repo}
}

// Execute re-emits every store snapshot sorted by order. The returned channel
// is closed when the store stream ends or ctx is done.
func (uc *GetNotes) Execute(ctx context.Context, order entities.NoteOrder) (<-chan []entities.Note, error) {
	upstream, err := uc.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	out := make(chan []entities.Note, 1)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case notes, ok := <-upstream:
				if !ok {
					return
				}
				select {
				case out <- order.Sort(notes):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Snapshot returns the current notes sorted by order.
func (uc *GetNotes) Snapshot(ctx context.Context, order entities.NoteOrder) ([]entities.Note, error) {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	notes, err := uc.Execute(subCtx, order)
	if err != nil {
		return nil, err
	}

	select {
	case snapshot, ok := <-notes:
		if !ok {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, ErrStreamClosed
		}
		return snapshot, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// NoteUseCases bundles the note use cases for the presentation layers.
type NoteUseCases struct {
	AddNote    *AddNote
	DeleteNote *DeleteNote
	GetNote    *GetNote
	GetNotes   *GetNotes
}

// NewNoteUseCases wires every use case to repo.
func NewNoteUseCases(repo repositories.NoteRepository) *NoteUseCases {
	return &NoteUseCases{
		AddNote:    NewAddNote(repo),
		DeleteNote: NewDeleteNote(repo),
		GetNote:    NewGetNote(repo),
		GetNotes:   NewGetNotes(repo),
	}
}
