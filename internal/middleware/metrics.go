package middleware

import (
	"strconv"
	"time"

	"ruangpena/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records request counts and latency per route pattern. A request
// that panics past this middleware is still counted, as a 500.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		metrics.RequestStarted()

		var err error
		panicked := true
		defer func() {
			status := responseStatus(c, err)
			if panicked {
				status = fiber.StatusInternalServerError
			}
			// Route().Path keeps label cardinality bounded (":id", not the id).
			metrics.RequestFinished(c.Method(), c.Route().Path, strconv.Itoa(status), time.Since(start).Seconds())
		}()

		err = c.Next()
		panicked = false
		return err
	}
}

// responseStatus is the status the error handler will write for err.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	if fe, ok := err.(*fiber.Error); ok {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
