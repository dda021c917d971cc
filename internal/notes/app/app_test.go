package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cleannote/internal/notes/adapters/memory"
	"cleannote/internal/notes/app"
	"cleannote/internal/notes/domain/entities"
	"cleannote/internal/notes/domain/validation"
)

var ErrDatabaseOperation = errors.New("database error")

type mockNoteRepository struct {
	mock.Mock
}

func (m *mockNoteRepository) Insert(ctx context.Context, note entities.Note) (int64, error) {
	args := m.Called(ctx, note)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNoteRepository) Delete(ctx context.Context, note entities.Note) error {
	return m.Called(ctx, note).Error(0)
}

func (m *mockNoteRepository) GetByID(ctx context.Context, id int64) (*entities.Note, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Note), args.Error(1)
}

func (m *mockNoteRepository) ListAll(ctx context.Context) (<-chan []entities.Note, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan []entities.Note), args.Error(1)
}

func receive(t *testing.T, ch <-chan []entities.Note) []entities.Note {
	t.Helper()
	select {
	case notes, ok := <-ch:
		require.True(t, ok, "stream closed")
		return notes
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notes")
		return nil
	}
}

func titles(notes []entities.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Title)
	}
	return out
}

func TestNewNoteUseCases(t *testing.T) {
	useCases := app.NewNoteUseCases(new(mockNoteRepository))

	assert.NotNil(t, useCases.AddNote)
	assert.NotNil(t, useCases.DeleteNote)
	assert.NotNil(t, useCases.GetNote)
	assert.NotNil(t, useCases.GetNotes)
}

func TestAddNote(t *testing.T) {
	valid := entities.Note{Title: "title", Content: "content", Timestamp: 1, Color: entities.ColorViolet}

	tests := []struct {
		name        string
		note        entities.Note
		setupMocks  func(repo *mockNoteRepository)
		expectedID  int64
		expectedErr error
	}{
		{
			name: "success - note inserted unchanged",
			note: valid,
			setupMocks: func(repo *mockNoteRepository) {
				repo.On("Insert", mock.Anything, valid).Return(int64(9), nil).Once()
			},
			expectedID: 9,
		},
		{
			name:        "error - blank title",
			note:        entities.Note{Title: "", Content: "content"},
			setupMocks:  func(*mockNoteRepository) {},
			expectedErr: validation.ErrEmptyTitle,
		},
		{
			name:        "error - full-width blank title",
			note:        entities.Note{Title: "　", Content: "content"},
			setupMocks:  func(*mockNoteRepository) {},
			expectedErr: validation.ErrEmptyTitle,
		},
		{
			name:        "error - blank content",
			note:        entities.Note{Title: "title", Content: " 　 "},
			setupMocks:  func(*mockNoteRepository) {},
			expectedErr: validation.ErrEmptyContent,
		},
		{
			name:        "error - both blank reports title",
			note:        entities.Note{},
			setupMocks:  func(*mockNoteRepository) {},
			expectedErr: validation.ErrEmptyTitle,
		},
		{
			name: "error - repository error",
			note: valid,
			setupMocks: func(repo *mockNoteRepository) {
				repo.On("Insert", mock.Anything, valid).Return(int64(0), ErrDatabaseOperation).Once()
			},
			expectedErr: ErrDatabaseOperation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockNoteRepository)
			tt.setupMocks(repo)

			id, err := app.NewAddNote(repo).Execute(context.Background(), tt.note)

			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				assert.Zero(t, id)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedID, id)
			}
			repo.AssertExpectations(t)
			if errors.Is(tt.expectedErr, validation.ErrInvalidNote) {
				repo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestDeleteNote(t *testing.T) {
	note := entities.Note{ID: entities.SavedID(3), Title: "t", Content: "c"}

	t.Run("delegates to repository", func(t *testing.T) {
		repo := new(mockNoteRepository)
		repo.On("Delete", mock.Anything, note).Return(nil).Once()

		require.NoError(t, app.NewDeleteNote(repo).Execute(context.Background(), note))
		repo.AssertExpectations(t)
	})

	t.Run("blank notes are not validated", func(t *testing.T) {
		repo := new(mockNoteRepository)
		blank := entities.Note{ID: entities.SavedID(4)}
		repo.On("Delete", mock.Anything, blank).Return(nil).Once()

		require.NoError(t, app.NewDeleteNote(repo).Execute(context.Background(), blank))
		repo.AssertExpectations(t)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(mockNoteRepository)
		repo.On("Delete", mock.Anything, note).Return(ErrDatabaseOperation).Once()

		err := app.NewDeleteNote(repo).Execute(context.Background(), note)
		require.ErrorIs(t, err, ErrDatabaseOperation)
		assert.ErrorContains(t, err, "failed to delete note")
	})
}

func TestGetNote(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo := new(mockNoteRepository)
		want := &entities.Note{ID: entities.SavedID(1), Title: "t", Content: "c"}
		repo.On("GetByID", mock.Anything, int64(1)).Return(want, nil).Once()

		got, err := app.NewGetNote(repo).Execute(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("not found is nil", func(t *testing.T) {
		repo := new(mockNoteRepository)
		repo.On("GetByID", mock.Anything, int64(2)).Return(nil, nil).Once()

		got, err := app.NewGetNote(repo).Execute(context.Background(), 2)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(mockNoteRepository)
		repo.On("GetByID", mock.Anything, int64(2)).Return(nil, ErrDatabaseOperation).Once()

		got, err := app.NewGetNote(repo).Execute(context.Background(), 2)
		require.ErrorIs(t, err, ErrDatabaseOperation)
		assert.Nil(t, got)
	})
}

func TestGetNotes_ListAllError(t *testing.T) {
	repo := new(mockNoteRepository)
	repo.On("ListAll", mock.Anything).Return(nil, ErrDatabaseOperation)

	ch, err := app.NewGetNotes(repo).Execute(context.Background(), entities.DefaultNoteOrder())
	assert.Nil(t, ch)
	require.ErrorIs(t, err, ErrDatabaseOperation)

	_, err = app.NewGetNotes(repo).Snapshot(context.Background(), entities.DefaultNoteOrder())
	require.ErrorIs(t, err, ErrDatabaseOperation)
}

func TestGetNotes_UpstreamCloses(t *testing.T) {
	repo := new(mockNoteRepository)
	upstream := make(chan []entities.Note)
	close(upstream)
	repo.On("ListAll", mock.Anything).Return((<-chan []entities.Note)(upstream), nil)

	_, err := app.NewGetNotes(repo).Snapshot(context.Background(), entities.DefaultNoteOrder())
	require.ErrorIs(t, err, app.ErrStreamClosed)
}

func TestGetNotes_DoesNotMutateUpstream(t *testing.T) {
	repo := new(mockNoteRepository)
	shared := []entities.Note{{Title: "b"}, {Title: "a"}}
	upstream := make(chan []entities.Note, 1)
	upstream <- shared
	repo.On("ListAll", mock.Anything).Return((<-chan []entities.Note)(upstream), nil)

	order := entities.NoteOrder{Field: entities.OrderByTitle, Direction: entities.Ascending}
	got, err := app.NewGetNotes(repo).Snapshot(context.Background(), order)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, titles(got))
	assert.Equal(t, []string{"b", "a"}, titles(shared))
}

func seed(t *testing.T, uc *app.NoteUseCases) {
	t.Helper()
	ctx := context.Background()
	for i, title := range []string{"2", "3", "1"} {
		_, err := uc.AddNote.Execute(ctx, entities.Note{
			Title:     title,
			Content:   title,
			Timestamp: int64(len(title) * (i + 1)),
			Color:     entities.Palette()[i],
		})
		require.NoError(t, err)
	}
}

func TestGetNotes_Ordering(t *testing.T) {
	repo := memory.NewNoteRepository()
	uc := app.NewNoteUseCases(repo)
	seed(t, uc)

	tests := []struct {
		order entities.NoteOrder
		want  []string
	}{
		{entities.NoteOrder{Field: entities.OrderByTitle, Direction: entities.Descending}, []string{"3", "2", "1"}},
		{entities.NoteOrder{Field: entities.OrderByTitle, Direction: entities.Ascending}, []string{"1", "2", "3"}},
		{entities.NoteOrder{Field: entities.OrderByDate, Direction: entities.Descending}, []string{"1", "3", "2"}},
		{entities.NoteOrder{Field: entities.OrderByDate, Direction: entities.Ascending}, []string{"2", "3", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.order.String(), func(t *testing.T) {
			got, err := uc.GetNotes.Snapshot(context.Background(), tt.order)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestGetNotes_StreamReemits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := memory.NewNoteRepository()
	uc := app.NewNoteUseCases(repo)
	order := entities.NoteOrder{Field: entities.OrderByTitle, Direction: entities.Ascending}

	stream, err := uc.GetNotes.Execute(ctx, order)
	require.NoError(t, err)
	assert.Empty(t, receive(t, stream))

	_, err = uc.AddNote.Execute(ctx, entities.NewNote("b", "b", entities.ColorRedOrange))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, titles(receive(t, stream)))

	id, err := uc.AddNote.Execute(ctx, entities.NewNote("a", "a", entities.ColorRedOrange))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, titles(receive(t, stream)))

	note, err := uc.GetNote.Execute(ctx, id)
	require.NoError(t, err)
	require.NoError(t, uc.DeleteNote.Execute(ctx, *note))
	assert.Equal(t, []string{"b"}, titles(receive(t, stream)))

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-stream:
			return !ok
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestEditAndRestore(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewNoteRepository()
	uc := app.NewNoteUseCases(repo)

	id, err := uc.AddNote.Execute(ctx, entities.NewNote("test-title", "content", entities.ColorViolet))
	require.NoError(t, err)

	original, err := uc.GetNote.Execute(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, original)

	edited := *original
	edited.Title = "test-title2"
	sameID, err := uc.AddNote.Execute(ctx, edited)
	require.NoError(t, err)
	assert.Equal(t, id, sameID)

	got, err := uc.GetNote.Execute(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "test-title2", got.Title)

	all, err := uc.GetNotes.Snapshot(ctx, entities.DefaultNoteOrder())
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, uc.DeleteNote.Execute(ctx, *got))
	require.NoError(t, uc.DeleteNote.Execute(ctx, *got))

	missing, err := uc.GetNote.Execute(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, missing)

	restoredID, err := uc.AddNote.Execute(ctx, *got)
	require.NoError(t, err)
	assert.Equal(t, id, restoredID)

	restored, err := uc.GetNote.Execute(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, got, restored)
}
