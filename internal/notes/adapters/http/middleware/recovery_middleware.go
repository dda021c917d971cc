package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"cleannote/pkg/logger"
)

// NewRecoveryMiddleware turns a handler panic into a 500 response. The body
// carries the request id so a client report can be matched to the log entry.
func NewRecoveryMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			requestCtx := RequestContext(ctx)
			log := logger.Log(requestCtx)
			log.Error(requestCtx, "Server panic", noteFields(ctx, []zap.Field{
				zap.String("method", ctx.Method()),
				zap.String("path", ctx.Path()),
				zap.String("panic", fmt.Sprint(r)),
				zap.ByteString("stack", debug.Stack()),
			})...)

			body := fiber.Map{"error": "Internal Server Error"}
			if id, ok := logger.GetRequestID(requestCtx); ok {
				body["request_id"] = id
			}
			if sendErr := ctx.Status(fiber.StatusInternalServerError).JSON(body); sendErr != nil {
				log.Error(requestCtx, "Failed to send error response after panic", zap.Error(sendErr))
				err = sendErr
			}
		}()

		return ctx.Next()
	}
}
