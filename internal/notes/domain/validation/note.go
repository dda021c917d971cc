// Package validation checks notes before they reach the store.
package validation

import (
	"errors"
	"strings"

	"cleannote/internal/notes/domain/entities"
)

// Reasons reported to callers.
const (
	ReasonEmptyTitle   = "The title of the note can't be empty."
	ReasonEmptyContent = "The content of the note can't be empty."
)

// ErrInvalidNote matches every *InvalidNoteError through errors.Is.
var ErrInvalidNote = errors.New("invalid note")

// InvalidNoteError is a caller input error carrying a human-readable reason.
type InvalidNoteError struct {
	Reason string
}

func (e *InvalidNoteError) Error() string {
	return e.Reason
}

// Is lets errors.Is(err, ErrInvalidNote) match any validation failure.
func (e *InvalidNoteError) Is(target error) bool {
	return target == ErrInvalidNote
}

// Validation failures. Compare with errors.Is.
var (
	ErrEmptyTitle   = &InvalidNoteError{Reason: ReasonEmptyTitle}
	ErrEmptyContent = &InvalidNoteError{Reason: ReasonEmptyContent}
)

// IsBlank reports whether s is empty after trimming Unicode white space,
// which includes the full-width space U+3000.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Validate returns ErrEmptyTitle or ErrEmptyContent, title first, or nil.
func Validate(note entities.Note) error {
	if IsBlank(note.Title) {
		return ErrEmptyTitle
	}
	if IsBlank(note.Content) {
		return ErrEmptyContent
	}
	return nil
}
