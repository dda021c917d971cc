// Package notes implements the HTTP handlers for the notes API.
package notes

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"cleannote/internal/notes/adapters/http/middleware"
	"cleannote/internal/notes/app"
	"cleannote/internal/notes/domain/entities"
	"cleannote/internal/notes/domain/validation"
	"cleannote/pkg/logger"
)

const (
	LogHandlerListNotes   = "handling list notes request"
	LogHandlerGetNote     = "handling get note request"
	LogHandlerCreateNote  = "handling create note request"
	LogHandlerUpdateNote  = "handling update note request"
	LogHandlerDeleteNote  = "handling delete note request"
	LogHandlerRestoreNote = "handling restore note request"

	ErrMsgInvalidNoteID      = "invalid note id"
	ErrMsgInvalidOrder       = "invalid order"
	ErrMsgInvalidRequestBody = "invalid request body"
	ErrMsgRestoreNeedsID     = "restored note must carry its id"
	ErrMsgNoteNotFound       = "note not found"
	ErrMsgInternal           = "internal server error"
	ErrMsgUnavailable        = "request cancelled"

	paramNoteID = "note_id"
	queryOrder  = "order"
)

// Handler serves the note endpoints.
type Handler struct {
	useCases *app.NoteUseCases
}

// NewHandler creates a handler over useCases.
func NewHandler(useCases *app.NoteUseCases) *Handler {
	return &Handler{useCases: useCases}
}

// ListNotes returns every note sorted by ?order=field:direction.
func (h *Handler) ListNotes(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.ListNotes"))
	log.Debug(requestCtx, LogHandlerListNotes)

	order := entities.DefaultNoteOrder()
	if raw := ctx.Query(queryOrder, ""); raw != "" {
		parsed, err := entities.ParseNoteOrder(raw)
		if err != nil {
			log.Debug(requestCtx, ErrMsgInvalidOrder, zap.Error(err))
			return sendError(ctx, fiber.StatusBadRequest, err.Error())
		}
		order = parsed
	}

	notes, err := h.useCases.GetNotes.Snapshot(requestCtx, order)
	if err != nil {
		log.Error(requestCtx, "failed to list notes", zap.Error(err))
		return handleError(ctx, err)
	}

	resp := ListNotesResponse{Order: order.String(), Notes: make([]Note, 0, len(notes))}
	for _, note := range notes {
		resp.Notes = append(resp.Notes, FromEntity(note))
	}
	return sendJSON(ctx, fiber.StatusOK, resp)
}

// GetNote returns one note or 404.
func (h *Handler) GetNote(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.GetNote"))
	log.Debug(requestCtx, LogHandlerGetNote)

	id, err := noteID(ctx)
	if err != nil {
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidNoteID)
	}

	note, err := h.useCases.GetNote.Execute(requestCtx, id)
	if err != nil {
		log.Error(requestCtx, "failed to get note", zap.Error(err))
		return handleError(ctx, err)
	}
	if note == nil {
		return sendError(ctx, fiber.StatusNotFound, ErrMsgNoteNotFound)
	}
	return sendJSON(ctx, fiber.StatusOK, FromEntity(*note))
}

// CreateNote stores a new note. An id in the body is ignored.
func (h *Handler) CreateNote(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.CreateNote"))
	log.Debug(requestCtx, LogHandlerCreateNote)

	req, ok := bindNote(ctx, log)
	if !ok {
		return nil
	}
	req.ID = nil

	return h.save(ctx, log, req.ToEntity(), fiber.StatusCreated)
}

// UpdateNote replaces the note at the path id.
func (h *Handler) UpdateNote(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.UpdateNote"))
	log.Debug(requestCtx, LogHandlerUpdateNote)

	id, err := noteID(ctx)
	if err != nil {
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidNoteID)
	}

	req, ok := bindNote(ctx, log)
	if !ok {
		return nil
	}
	req.ID = &id

	return h.save(ctx, log, req.ToEntity(), fiber.StatusOK)
}

// DeleteNote removes a note and returns it so the client can undo.
func (h *Handler) DeleteNote(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.DeleteNote"))
	log.Debug(requestCtx, LogHandlerDeleteNote)

	id, err := noteID(ctx)
	if err != nil {
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidNoteID)
	}

	note, err := h.useCases.GetNote.Execute(requestCtx, id)
	if err != nil {
		log.Error(requestCtx, "failed to get note", zap.Error(err))
		return handleError(ctx, err)
	}
	if note == nil {
		return sendError(ctx, fiber.StatusNotFound, ErrMsgNoteNotFound)
	}

	if err := h.useCases.DeleteNote.Execute(requestCtx, *note); err != nil {
		log.Error(requestCtx, "failed to delete note", zap.Error(err))
		return handleError(ctx, err)
	}
	return sendJSON(ctx, fiber.StatusOK, FromEntity(*note))
}

// RestoreNote re-inserts a previously deleted note under its old id.
func (h *Handler) RestoreNote(ctx fiber.Ctx) error {
	requestCtx := middleware.RequestContext(ctx)
	log := logger.Log(requestCtx).With(zap.String("handler", "Handler.RestoreNote"))
	log.Debug(requestCtx, LogHandlerRestoreNote)

	req, ok := bindNote(ctx, log)
	if !ok {
		return nil
	}
	if req.ID == nil {
		return sendError(ctx, fiber.StatusBadRequest, ErrMsgRestoreNeedsID)
	}

	return h.save(ctx, log, req.ToEntity(), fiber.StatusCreated)
}

// ListColors returns the palette.
func (h *Handler) ListColors(ctx fiber.Ctx) error {
	palette := entities.Palette()
	colors := make([]Color, 0, len(palette))
	for _, c := range palette {
		colors = append(colors, Color{Value: int64(c), Hex: c.Hex()})
	}
	return sendJSON(ctx, fiber.StatusOK, colors)
}

func (h *Handler) save(ctx fiber.Ctx, log *logger.Logger, note entities.Note, status int) error {
	requestCtx := middleware.RequestContext(ctx)

	id, err := h.useCases.AddNote.Execute(requestCtx, note)
	if err != nil {
		log.Debug(requestCtx, "failed to save note", zap.Error(err))
		return handleError(ctx, err)
	}
	return sendJSON(ctx, status, IDResponse{ID: id})
}

func bindNote(ctx fiber.Ctx, log *logger.Logger) (*NoteRequest, bool) {
	var req NoteRequest
	if err := ctx.Bind().Body(&req); err != nil {
		log.Debug(middleware.RequestContext(ctx), ErrMsgInvalidRequestBody, zap.Error(err))
		if sendErr := sendError(ctx, fiber.StatusBadRequest, ErrMsgInvalidRequestBody); sendErr != nil {
			log.Error(middleware.RequestContext(ctx), "failed to send bad request response", zap.Error(sendErr))
		}
		return nil, false
	}
	return &req, true
}

func noteID(ctx fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(ctx.Params(paramNoteID), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgInvalidNoteID, err)
	}
	middleware.SetNoteID(ctx, id)
	return id, nil
}

func handleError(ctx fiber.Ctx, err error) error {
	var invalid *validation.InvalidNoteError
	switch {
	case errors.As(err, &invalid):
		return sendError(ctx, fiber.StatusUnprocessableEntity, invalid.Reason)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return sendError(ctx, fiber.StatusServiceUnavailable, ErrMsgUnavailable)
	default:
		return sendError(ctx, fiber.StatusInternalServerError, ErrMsgInternal)
	}
}

func sendError(ctx fiber.Ctx, status int, msg string) error {
	return sendJSON(ctx, status, fiber.Map{"error": msg})
}

func sendJSON(ctx fiber.Ctx, status int, body any) error {
	if err := ctx.Status(status).JSON(body); err != nil {
		return fmt.Errorf("error sending response: %w", err)
	}
	return nil
}
