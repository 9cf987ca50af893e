package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/crm-ia/internal/infrastructure/circuitbreaker"
)

// errServerStatus marks a handler that answered with a 5xx status
var errServerStatus = errors.New("server error status")

// CircuitBreaker guards the API with the named breaker of manager. Handler
// errors and 5xx responses count as failures; an open breaker answers 503.
func CircuitBreaker(manager *circuitbreaker.Manager, name string, log *zap.Logger) fiber.Handler {
	cb := manager.Get(name)

	return func(c *fiber.Ctx) error {
		var handlerErr error
		_, err := cb.Execute(func() (interface{}, error) {
			handlerErr = c.Next()
			if handlerErr != nil {
				return nil, handlerErr
			}
			if c.Response().StatusCode() >= fiber.StatusInternalServerError {
				return nil, errServerStatus
			}
			return nil, nil
		})

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			log.Warn("API circuit breaker rejected request",
				zap.String("breaker", name),
				zap.String("path", c.Path()),
			)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"ok":    false,
				"error": "Service temporarily unavailable",
			})
		}

		return handlerErr
	}
}
