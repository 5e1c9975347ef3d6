package middleware

import (
	"errors"
	"strings"

	"notekeeper/internal/services"
	"notekeeper/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

const userIDKey = "user_id"

// AuthRequired is a Fiber middleware that resolves the bearer token to a
// user id and stores it in the request context.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := authService.ResolveToken(bearerToken(c.Get(fiber.HeaderAuthorization)))
		if err != nil {
			message := "Invalid or expired token"
			var ae *apperr.AppError
			if errors.As(err, &ae) {
				message = ae.Message
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": message,
				"error":   string(apperr.KindUnauthenticated),
			})
		}

		c.Locals(userIDKey, userID)
		return c.Next()
	}
}

// UserID returns the authenticated caller set by AuthRequired.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(userIDKey).(string)
	return id
}

// bearerToken extracts the token from "Bearer <token>". A malformed header
// yields a non-empty value so it is reported as invalid rather than missing.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return header
	}
	return strings.TrimSpace(token)
}
