package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/liveflow/donor-service/pkg/util"
)

// RequestIDHeader carries the correlation id of a request.
const RequestIDHeader = "X-Request-Id"

// RequestIDKey is the fiber Locals key holding the request id.
const RequestIDKey = "requestID"

// UnmatchedRoute labels requests no route handled.
const UnmatchedRoute = "unmatched"

// RouteKey returns the registered route template for c, such as
// /req-details/:id, so metrics stay bounded by the route table. It is only
// meaningful after c.Next has returned.
func RouteKey(c *fiber.Ctx) string {
	r := c.Route()
	if r == nil || r.Path == "" || r.Method == "USE" || len(r.Handlers) == 0 {
		return UnmatchedRoute
	}
	return r.Path
}

// RequestIDFromCtx returns the request id assigned by RequestLogger.
func RequestIDFromCtx(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDKey).(string)
	return id
}

// RequestLogger assigns a request id, logs each completed request and records
// its latency. It must run inside the error middleware so the final status is seen.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals(RequestIDKey, requestID)
		c.Set(RequestIDHeader, requestID)

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = util.ToDomainError(err).HTTPStatus
		}
		duration := time.Since(start)
		metrics.RecordRequest(RouteKey(c), c.Method(), status, duration)
		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("duration", duration),
		)
		return err
	}
}
