package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Pelan2022/Koulio/internal/auth/domain"
)

const localsUserKey = "authUser"

// RequireAuth validates the bearer access token and loads the account it
// belongs to into the request locals.
func (h *AuthHandler) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "access token required"})
		}

		user, err := h.userService.AuthenticateAccess(c.UserContext(), token)
		if err != nil {
			return h.respondError(c, err)
		}

		c.Locals(localsUserKey, user)
		return c.Next()
	}
}

// RequireRole rejects authenticated requests whose account does not carry
// the given role. Must run after RequireAuth.
func (h *AuthHandler) RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := currentUser(c)
		if user == nil || user.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient permissions"})
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return auth[7:]
	}
	return ""
}

func currentUser(c *fiber.Ctx) *domain.User {
	user, _ := c.Locals(localsUserKey).(*domain.User)
	return user
}

func currentUserID(c *fiber.Ctx) string {
	if user := currentUser(c); user != nil {
		return user.ID
	}
	return ""
}
