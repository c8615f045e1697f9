package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RequestLogger is a Fiber middleware that logs every request with zap.
func RequestLogger(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()

		err := c.Next()

		span := trace.SpanFromContext(c.UserContext())
		traceID := ""
		if span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		}

		logger.Info("HTTP Request",
			zap.String("request_id", c.GetRespHeader(fiber.HeaderXRequestID)),
			zap.String("trace_id", traceID),
			zap.Int("status", responseStatus(c, err)),
			zap.String("method", c.Method()),
			zap.String("path", path),
			zap.String("ip", c.IP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user-agent", c.Get(fiber.HeaderUserAgent)),
		)
		return err
	}
}

// responseStatus is the status the client will see, including errors that
// the app's error handler has not written yet.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	if fe, ok := err.(*fiber.Error); ok {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
