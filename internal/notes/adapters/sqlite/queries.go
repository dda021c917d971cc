package sqlite

import (
	sq "github.com/Masterminds/squirrel"

	"cleannote/internal/notes/domain/entities"
)

const notesTable = "notes"

var noteColumns = []string{"id", "title", "content", "timestamp_ms", "color"}

func buildInsertQuery(note entities.Note) (string, []any, error) {
	if id, saved := note.ID.Value(); saved {
		return sq.Replace(notesTable).
			Columns(noteColumns...).
			Values(id, note.Title, note.Content, note.Timestamp, int64(note.Color)).
			ToSql()
	}
	return sq.Insert(notesTable).
		Columns(noteColumns[1:]...).
		Values(note.Title, note.Content, note.Timestamp, int64(note.Color)).
		ToSql()
}

func buildGetByIDQuery(id int64) (string, []any, error) {
	return sq.Select(noteColumns...).
		From(notesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
}

func buildListAllQuery() (string, []any, error) {
	return sq.Select(noteColumns...).
		From(notesTable).
		OrderBy("id").
		ToSql()
}

func buildDeleteQuery(id int64) (string, []any, error) {
	return sq.Delete(notesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
}
