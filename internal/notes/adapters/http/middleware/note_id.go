package middleware

import (
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

const localsNoteID = "noteID"

// SetNoteID records the note a request addresses so request logs can name it.
func SetNoteID(ctx fiber.Ctx, id int64) {
	ctx.Locals(localsNoteID, id)
}

// NoteID returns the id recorded by SetNoteID.
func NoteID(ctx fiber.Ctx) (int64, bool) {
	id, ok := ctx.Locals(localsNoteID).(int64)
	return id, ok
}

func noteFields(ctx fiber.Ctx, fields []zap.Field) []zap.Field {
	if id, ok := NoteID(ctx); ok {
		return append(fields, zap.Int64("note_id", id))
	}
	return fields
}
