package middleware

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"cleannote/pkg/logger"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

const localsRequestContext = "requestContext"

// NewRequestIDMiddleware stores the incoming X-Request-ID, or a fresh one, in
// the request context and echoes it back.
func NewRequestIDMiddleware() fiber.Handler {
	return func(ctx fiber.Ctx) error {
		requestCtx := logger.NewRequestIDContext(RequestContext(ctx), ctx.Get(HeaderRequestID))
		id, _ := logger.GetRequestID(requestCtx)

		ctx.Locals(localsRequestContext, requestCtx)
		ctx.Set(HeaderRequestID, id)

		return ctx.Next()
	}
}

// RequestContext returns the context prepared by NewRequestIDMiddleware, or
// the plain fiber request context when the middleware did not run.
func RequestContext(ctx fiber.Ctx) context.Context {
	if requestCtx, ok := ctx.Locals(localsRequestContext).(context.Context); ok {
		return requestCtx
	}
	return ctx.Context()
}
