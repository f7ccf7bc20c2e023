package handlers

import (
	"errors"

	"ruangpena/internal/models"
	"ruangpena/internal/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// MsgInternal is the only message a client sees for unclassified failures.
const MsgInternal = "Internal server error"

func respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(models.Response{
		Success: status < fiber.StatusBadRequest,
		Message: message,
		Data:    data,
	})
}

func fail(c *fiber.Ctx, status int, message string) error {
	return respond(c, status, message, nil)
}

// respondError maps a service error to its status code. Anything that is
// not a *services.Error is logged and hidden behind a 500.
func respondError(c *fiber.Ctx, err error) error {
	var serviceErr *services.Error
	if !errors.As(err, &serviceErr) {
		log.WithError(err).WithFields(log.Fields{
			"method":     c.Method(),
			"path":       c.Path(),
			"request_id": c.Locals("requestid"),
		}).Error("unexpected error")
		return fail(c, fiber.StatusInternalServerError, MsgInternal)
	}

	switch {
	case errors.Is(err, services.ErrValidation):
		return fail(c, fiber.StatusBadRequest, serviceErr.Message)
	case errors.Is(err, services.ErrUnauthorized):
		return fail(c, fiber.StatusUnauthorized, serviceErr.Message)
	case errors.Is(err, services.ErrForbidden):
		return fail(c, fiber.StatusForbidden, serviceErr.Message)
	case errors.Is(err, services.ErrNotFound):
		return fail(c, fiber.StatusNotFound, serviceErr.Message)
	case errors.Is(err, services.ErrConflict):
		return fail(c, fiber.StatusConflict, serviceErr.Message)
	}
	log.WithError(err).Error("service error without a known kind")
	return fail(c, fiber.StatusInternalServerError, MsgInternal)
}

// parseBody decodes the JSON body into v. It writes the 400 response
// itself and reports whether the handler should continue.
func parseBody(c *fiber.Ctx, v interface{}) (bool, error) {
	if err := c.BodyParser(v); err != nil {
		log.WithError(err).WithField("path", c.Path()).Debug("invalid request body")
		return false, fail(c, fiber.StatusBadRequest, "Invalid request body")
	}
	return true, nil
}

// ErrorHandler renders errors that escape the handlers, such as unknown
// routes and recovered panics, with the response envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fail(c, fe.Code, fe.Message)
	}
	log.WithError(err).WithField("path", c.Path()).Error("unhandled error")
	return fail(c, fiber.StatusInternalServerError, MsgInternal)
}
