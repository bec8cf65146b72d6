package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fixkit/repair-service/internal/observability"
	apperrors "github.com/fixkit/repair-service/pkg/util"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(requestIDMiddleware())
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

// RequestID returns the id assigned to the current request.
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

// requestIDMiddleware tags every request with an id, honoring one supplied by
// the caller, and echoes it on the response so tickets raised against the
// service can quote it.
func requestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(requestIDKey, id)
		c.Set(requestIDHeader, id)
		return c.Next()
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware converts returned and panicked errors into the
// domain error envelope. The request id rides along in the envelope and in
// server side logs so the two can be correlated.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.String(requestIDKey, RequestID(c)),
					zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				err = writeErrorEnvelope(c, err, logger, metrics)
			}
		}()
		return c.Next()
	}
}

func writeErrorEnvelope(c *fiber.Ctx, err error, logger *zap.Logger, metrics *observability.Metrics) error {
	domainErr := apperrors.ToDomainError(err)
	if metrics != nil {
		metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
	}

	body := fiber.Map{
		"code":       domainErr.Code,
		"message":    domainErr.Message,
		"request_id": RequestID(c),
	}
	if len(domainErr.Details) > 0 {
		body["details"] = domainErr.Details
	}

	if domainErr.HTTPStatus >= 500 {
		logger.Error("request failed",
			zap.String(requestIDKey, RequestID(c)),
			zap.Error(domainErr))
	}

	c.Status(domainErr.HTTPStatus)
	_ = c.JSON(fiber.Map{"error": body})
	return nil
}
