package middleware

import (
	"strings"

	"ruangpena/internal/models"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// UserIDKey is the Locals key holding the authenticated user id.
const UserIDKey = "userID"

// TokenValidator resolves a bearer token to a user id.
type TokenValidator interface {
	ValidateToken(token string) (string, bool)
}

// AuthRequired is a Fiber middleware to check for a valid JWT token. It
// never touches the database; handlers decide what a vanished user means.
func AuthRequired(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required")
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return unauthorized(c, "Authorization header format must be 'Bearer <token>'")
		}

		userID, ok := tokens.ValidateToken(strings.TrimSpace(parts[1]))
		if !ok {
			log.WithField("path", c.Path()).Debug("rejected bearer token")
			return unauthorized(c, "Invalid or expired token")
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// UserID returns the id stored by AuthRequired, or "" outside a guarded route.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(models.Response{Success: false, Message: message})
}
