package notes

import (
	"time"

	"cleannote/internal/notes/domain/entities"
)

// NoteRequest is the body of create, edit and restore requests. Omitted
// timestamp and color fall back to now and the first palette color.
type NoteRequest struct {
	ID        *int64 `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Timestamp *int64 `json:"timestamp"`
	Color     *int64 `json:"color"`
}

// ToEntity converts the request to a note.
func (r *NoteRequest) ToEntity() entities.Note {
	note := entities.Note{
		ID:        entities.Unsaved(),
		Title:     r.Title,
		Content:   r.Content,
		Timestamp: time.Now().UnixMilli(),
		Color:     entities.DefaultColor(),
	}
	if r.ID != nil {
		note.ID = entities.SavedID(*r.ID)
	}
	if r.Timestamp != nil {
		note.Timestamp = *r.Timestamp
	}
	if r.Color != nil {
		note.Color = entities.Color(*r.Color)
	}
	return note
}

// Note is a note as returned by the API.
type Note struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	Color     int64  `json:"color"`
	ColorHex  string `json:"color_hex"`
}

// FromEntity converts a stored note.
func FromEntity(note entities.Note) Note {
	id, _ := note.ID.Value()
	return Note{
		ID:        id,
		Title:     note.Title,
		Content:   note.Content,
		Timestamp: note.Timestamp,
		Color:     int64(note.Color),
		ColorHex:  note.Color.Hex(),
	}
}

// ListNotesResponse is the body of the list endpoint.
type ListNotesResponse struct {
	Order string `json:"order"`
	Notes []Note `json:"notes"`
}

// IDResponse reports the id a note was stored under.
type IDResponse struct {
	ID int64 `json:"id"`
}

// Color is one palette entry.
type Color struct {
	Value int64  `json:"value"`
	Hex   string `json:"hex"`
}
