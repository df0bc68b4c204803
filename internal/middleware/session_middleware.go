package middleware

import (
	"log"
	"strings"

	"warung/internal/models"
	"warung/internal/services"

	"github.com/gofiber/fiber/v2"
)

// sessionKey is the Locals key under which the session descriptor is stored.
const sessionKey = "session"

// AuthRequired is a Fiber middleware that validates the Bearer token and
// stores the resulting session descriptor in the request context.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header is required",
			})
		}

		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authorization header format must be 'Bearer <token>'",
			})
		}

		session, err := authService.ValidateToken(parts[1])
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
				"error":   err.Error(),
			})
		}

		c.Locals(sessionKey, session)
		return c.Next()
	}
}

// SessionFromContext returns the session descriptor stored by AuthRequired.
// The zero session (no identity) means the middleware did not run.
func SessionFromContext(c *fiber.Ctx) models.Session {
	if session, ok := c.Locals(sessionKey).(models.Session); ok {
		return session
	}
	return models.Session{}
}
