package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	autherror "github.com/Pelan2022/Koulio/internal/errors"
)

// statusFromError maps the service error set to HTTP status codes. Anything
// outside the set is an internal error; its cause stays out of the response.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, autherror.ErrInvalidEmail),
		errors.Is(err, autherror.ErrWeakPassword):
		return fiber.StatusBadRequest
	case errors.Is(err, autherror.ErrEmailAlreadyInUse):
		return fiber.StatusConflict
	case errors.Is(err, autherror.ErrInvalidCredentials),
		errors.Is(err, autherror.ErrTokenExpired),
		errors.Is(err, autherror.ErrTokenInvalid),
		errors.Is(err, autherror.ErrSessionNotFound),
		errors.Is(err, autherror.ErrSessionRevoked),
		errors.Is(err, autherror.ErrSessionExpired),
		errors.Is(err, autherror.ErrUserInactive):
		return fiber.StatusUnauthorized
	case errors.Is(err, autherror.ErrAccountLocked):
		return fiber.StatusLocked
	case errors.Is(err, autherror.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, autherror.ErrUserNotFound):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *AuthHandler) respondError(c *fiber.Ctx, err error) error {
	status := statusFromError(err)
	if status == fiber.StatusInternalServerError {
		h.log.Error("internal error", zap.Error(err))
		return c.Status(status).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
