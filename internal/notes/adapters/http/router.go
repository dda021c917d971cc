// Package http wires the notes API routes.
package http

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"cleannote/internal/notes/adapters/http/middleware"
	"cleannote/internal/notes/adapters/http/notes"
	"cleannote/internal/notes/app"
	"cleannote/pkg/logger"
)

// HealthCheck reports whether a dependency of the API is usable.
type HealthCheck func(context.Context) error

// SetupRouter mounts middleware, /healthz and the /api/v1/notes routes on router.
func SetupRouter(router fiber.Router, useCases *app.NoteUseCases, checks ...HealthCheck) {
	notesHandler := notes.NewHandler(useCases)

	router.Use(middleware.NewRequestIDMiddleware())
	router.Use(middleware.NewLoggerMiddleware())
	router.Use(middleware.NewRecoveryMiddleware())

	router.Get("/healthz", healthHandler(checks))

	apiV1 := router.Group("/api/v1")

	notesRoutes := apiV1.Group("/notes")
	notesRoutes.Get("/colors", notesHandler.ListColors)
	notesRoutes.Post("/restore", notesHandler.RestoreNote)
	notesRoutes.Get("/", notesHandler.ListNotes)
	notesRoutes.Post("/", notesHandler.CreateNote)
	notesRoutes.Get("/:note_id", notesHandler.GetNote)
	notesRoutes.Put("/:note_id", notesHandler.UpdateNote)
	notesRoutes.Delete("/:note_id", notesHandler.DeleteNote)

	router.Use(func(c fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Route not found",
		})
	})
}

// NewApp creates a fiber app with the note routes mounted.
func NewApp(cfg fiber.Config, useCases *app.NoteUseCases, checks ...HealthCheck) *fiber.App {
	application := fiber.New(cfg)
	SetupRouter(application, useCases, checks...)
	return application
}

func healthHandler(checks []HealthCheck) fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := middleware.RequestContext(ctx)
		for _, check := range checks {
			if err := check(requestCtx); err != nil {
				logger.Log(requestCtx).Warn(requestCtx, "health check failed", zap.Error(err))
				return ctx.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
			}
		}
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	}
}
