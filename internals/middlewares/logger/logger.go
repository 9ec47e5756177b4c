package logger

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"propertytools_backend/internals/configs"
)

const LocLogger = "logger"

// LoggerMiddleware writes one access line per request.
func LoggerMiddleware() fiber.Handler {
	return logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   configs.GetEnv("LOG_TIMEZONE", "UTC"),
		Format:     "[${time}] ${locals:requestid} ${ip} - ${method} ${path} - ${status} - ${latency}\n",
	})
}

// RequestID assigns a request ID, echoed in the X-Request-ID header.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: uuid.NewString,
	})
}

// ZapContext must run after RequestID.
func ZapContext() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid, _ := c.Locals("requestid").(string)
		l := configs.Logger.With(zap.String("request_id", rid))
		c.Locals(LocLogger, l)

		started := time.Now()
		err := c.Next()
		if err != nil {
			l.Warn("[HTTP] handler error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Duration("took", time.Since(started)),
				zap.Error(err))
		}
		return err
	}
}

// From returns the request-scoped logger, or the root logger.
func From(c *fiber.Ctx) *zap.Logger {
	if l, ok := c.Locals(LocLogger).(*zap.Logger); ok && l != nil {
		return l
	}
	return configs.Logger
}
