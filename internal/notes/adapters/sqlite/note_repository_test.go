package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleannote/internal/notes/adapters/sqlite"
	"cleannote/internal/notes/domain/entities"
	"cleannote/pkg/db/migrations"
	dbsqlite "cleannote/pkg/db/sqlite"
)

var errDisk = errors.New("disk I/O error")

var (
	insertSQL  = regexp.QuoteMeta("INSERT INTO notes (title,content,timestamp_ms,color) VALUES (?,?,?,?)")
	replaceSQL = regexp.QuoteMeta("REPLACE INTO notes (id,title,content,timestamp_ms,color) VALUES (?,?,?,?,?)")
	listSQL    = regexp.QuoteMeta("SELECT id, title, content, timestamp_ms, color FROM notes ORDER BY id")
	getSQL     = regexp.QuoteMeta("SELECT id, title, content, timestamp_ms, color FROM notes WHERE id = ?")
	deleteSQL  = regexp.QuoteMeta("DELETE FROM notes WHERE id = ?")
)

var columns = []string{"id", "title", "content", "timestamp_ms", "color"}

func newMockRepo(t *testing.T) (*sqlite.NoteRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewNoteRepository(db), mock
}

func TestNoteRepository_Insert(t *testing.T) {
	ctx := context.Background()

	t.Run("new note", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		note := entities.Note{Title: "t", Content: "c", Timestamp: 1, Color: entities.ColorLightGreen}

		mock.ExpectExec(insertSQL).
			WithArgs("t", "c", int64(1), int64(entities.ColorLightGreen)).
			WillReturnResult(sqlmock.NewResult(12, 1))
		mock.ExpectQuery(listSQL).WillReturnRows(sqlmock.NewRows(columns))

		id, err := repo.Insert(ctx, note)
		require.NoError(t, err)
		assert.Equal(t, int64(12), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("saved note keeps its id", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		note := entities.Note{ID: entities.SavedID(5), Title: "t", Content: "c"}

		mock.ExpectExec(replaceSQL).
			WithArgs(int64(5), "t", "c", int64(0), int64(0)).
			WillReturnResult(sqlmock.NewResult(5, 1))
		mock.ExpectQuery(listSQL).WillReturnRows(sqlmock.NewRows(columns))

		id, err := repo.Insert(ctx, note)
		require.NoError(t, err)
		assert.Equal(t, int64(5), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(insertSQL).WillReturnError(errDisk)

		id, err := repo.Insert(ctx, entities.Note{Title: "t", Content: "c"})
		assert.Zero(t, id)
		require.ErrorIs(t, err, errDisk)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNoteRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("existing row", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(deleteSQL).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(listSQL).WillReturnRows(sqlmock.NewRows(columns))

		require.NoError(t, repo.Delete(ctx, entities.Note{ID: entities.SavedID(3)}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(deleteSQL).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, repo.Delete(ctx, entities.Note{ID: entities.SavedID(3)}))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(deleteSQL).WithArgs(int64(3)).WillReturnError(errDisk)

		require.ErrorIs(t, repo.Delete(ctx, entities.Note{ID: entities.SavedID(3)}), errDisk)
	})
}

func TestNoteRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(getSQL).WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(int64(1), "a", "b", int64(2), int64(entities.ColorRedPink)))

		note, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		require.NotNil(t, note)
		assert.Equal(t, entities.SavedID(1), note.ID)
		assert.Equal(t, entities.ColorRedPink, note.Color)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(getSQL).WithArgs(int64(1)).WillReturnRows(sqlmock.NewRows(columns))

		note, err := repo.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, note)
	})

	t.Run("query error", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(getSQL).WithArgs(int64(1)).WillReturnError(errDisk)

		note, err := repo.GetByID(ctx, 1)
		assert.Nil(t, note)
		require.ErrorIs(t, err, errDisk)
	})
}

// TestNoteRepository_File runs the repository against a real migrated database file.
func TestNoteRepository_File(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "notes.db")
	db, err := dbsqlite.New(ctx, path)
	require.NoError(t, err)
	defer func() { _ = db.Close(ctx) }()

	source, err := migrations.SourceURL(filepath.Join("..", "..", "..", "..", "migrations", "notes", "sqlite"))
	require.NoError(t, err)
	require.NoError(t, migrations.Apply(ctx, source, dbsqlite.MigrationURL(path)))

	repo := sqlite.NewNoteRepository(db.DB())
	defer repo.Close()

	ch, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, <-ch)

	id, err := repo.Insert(ctx, entities.Note{Title: "test-title", Content: "c", Timestamp: 1, Color: entities.ColorViolet})
	require.NoError(t, err)
	require.Len(t, waitSnapshot(t, ch), 1)

	_, err = repo.Insert(ctx, entities.Note{ID: entities.SavedID(id), Title: "test-title2", Content: "c", Timestamp: 1, Color: entities.ColorViolet})
	require.NoError(t, err)
	snap := waitSnapshot(t, ch)
	require.Len(t, snap, 1)
	assert.Equal(t, "test-title2", snap[0].Title)

	next, err := repo.Insert(ctx, entities.Note{Title: "other", Content: "c"})
	require.NoError(t, err)
	assert.Greater(t, next, id)
	waitSnapshot(t, ch)

	note, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, *note))
	assert.Len(t, waitSnapshot(t, ch), 1)

	missing, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, missing)

	var count int
	require.NoError(t, db.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM notes").Scan(&count))
	assert.Equal(t, 1, count)
}

func waitSnapshot(t *testing.T, ch <-chan []entities.Note) []entities.Note {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(time.Second):
		t.Fatal("no snapshot")
		return nil
	}
}
