// Package middleware holds the fiber middleware shared by the notes API.
package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"cleannote/pkg/logger"
)

// NewLoggerMiddleware writes one access entry per request. Server errors log
// at error level, rejected requests at warn and the rest at info.
func NewLoggerMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := RequestContext(ctx)
		start := time.Now()

		log := logger.Log(requestCtx).With(
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.String("ip", ctx.IP()),
		)
		log.Debug(requestCtx, "Request started")

		err := ctx.Next()

		status := ctx.Response().StatusCode()
		fields := noteFields(ctx, []zap.Field{
			zap.Int("status", status),
			zap.Int("bytes", len(ctx.Response().Body())),
			zap.Duration("latency", time.Since(start)),
		})

		switch {
		case err != nil:
			log.Error(requestCtx, "Request failed", append(fields, zap.Error(err))...)
			return fmt.Errorf("request processing error: %w", err)
		case status >= fiber.StatusInternalServerError:
			log.Error(requestCtx, "Request completed", fields...)
		case status >= fiber.StatusBadRequest:
			log.Warn(requestCtx, "Request rejected", fields...)
		default:
			log.Info(requestCtx, "Request completed", fields...)
		}
		return nil
	}
}
