// Package entities defines the domain entities for the notes service.
package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// NoteID identifies a persisted note. The zero value is an unsaved id.
type NoteID struct {
	value int64
	saved bool
}

// Unsaved returns the id of a note the store has not seen yet.
func Unsaved() NoteID {
	return NoteID{}
}

// SavedID wraps an id assigned by the store.
func SavedID(id int64) NoteID {
	return NoteID{value: id, saved: true}
}

// Value returns the stored id and whether the note is saved.
func (id NoteID) Value() (int64, bool) {
	return id.value, id.saved
}

// IsSaved reports whether the store assigned this id.
func (id NoteID) IsSaved() bool {
	return id.saved
}

func (id NoteID) String() string {
	if !id.saved {
		return "unsaved"
	}
	return strconv.FormatInt(id.value, 10)
}

// MarshalJSON encodes an unsaved id as null.
func (id NoteID) MarshalJSON() ([]byte, error) {
	if !id.saved {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(id.value, 10)), nil
}

// UnmarshalJSON accepts null or an integer.
func (id *NoteID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*id = Unsaved()
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("note id: %w", err)
	}
	*id = SavedID(v)
	return nil
}

// Note is a user's text note.
type Note struct {
	ID        NoteID `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // ms since epoch, set by the caller
	Color     Color  `json:"color"`
}

// NewNote creates an unsaved note stamped with the current time.
func NewNote(title, content string, color Color) Note {
	return Note{
		ID:        Unsaved(),
		Title:     title,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
		Color:     color,
	}
}

// WithID returns a copy of n carrying id.
func (n Note) WithID(id int64) Note {
	n.ID = SavedID(id)
	return n
}
