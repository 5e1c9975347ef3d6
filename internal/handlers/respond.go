package handlers

import (
	"errors"

	"notekeeper/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var kindStatus = map[apperr.Kind]int{
	apperr.KindValidation:         fiber.StatusBadRequest,
	apperr.KindDuplicateEmail:     fiber.StatusConflict,
	apperr.KindNotFound:           fiber.StatusNotFound,
	apperr.KindInvalidCredentials: fiber.StatusUnauthorized,
	apperr.KindNotVerified:        fiber.StatusUnauthorized,
	apperr.KindInvalidCode:        fiber.StatusBadRequest,
	apperr.KindUnauthenticated:    fiber.StatusUnauthorized,
	apperr.KindRateLimited:        fiber.StatusTooManyRequests,
	apperr.KindNotifyFailed:       fiber.StatusInternalServerError,
	apperr.KindInternal:           fiber.StatusInternalServerError,
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind apperr.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// errorBody renders err as {"message", "error", "errors"}. Internal causes
// are logged and never exposed.
func errorBody(log *zap.Logger, c *fiber.Ctx, err error) (int, fiber.Map) {
	var ae *apperr.AppError
	if !errors.As(err, &ae) {
		ae = apperr.Internal(err)
	}

	status := statusFor(ae.Kind)
	if status >= fiber.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("kind", string(ae.Kind)),
			zap.Error(err),
		)
	}

	body := fiber.Map{
		"message": ae.Message,
		"error":   string(ae.Kind),
	}
	if len(ae.Fields) > 0 {
		body["errors"] = ae.Fields
	}
	return status, body
}

func writeError(log *zap.Logger, c *fiber.Ctx, err error) error {
	status, body := errorBody(log, c, err)
	return c.Status(status).JSON(body)
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   string(apperr.KindValidation),
	})
}
