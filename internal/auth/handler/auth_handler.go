package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Pelan2022/Koulio/internal/auth/dto"
	"github.com/Pelan2022/Koulio/internal/auth/service"
)

type AuthHandler struct {
	userService *service.UserService
	log         *zap.Logger
}

func NewAuthHandler(userService *service.UserService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{userService: userService, log: log}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	out, err := h.userService.Register(c.UserContext(), input)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	out, err := h.userService.Login(c.UserContext(), input)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	if input.RefreshToken == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "refresh token is required"})
	}
	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	out, err := h.userService.Refresh(c.UserContext(), input)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(out)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input dto.LogoutInput
	// Body is optional; without a refresh token all sessions are revoked.
	_ = c.BodyParser(&input)
	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	if err := h.userService.Logout(c.UserContext(), currentUserID(c), input); err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "logged out successfully"})
}

func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	out, err := h.userService.Profile(c.UserContext(), currentUserID(c))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": out})
}

func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	var input dto.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	out, err := h.userService.UpdateProfile(c.UserContext(), currentUserID(c), input)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"user": out})
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var input dto.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	if err := h.userService.ChangePassword(c.UserContext(), currentUserID(c), input); err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "password changed successfully, please login again"})
}

func (h *AuthHandler) DeleteAccount(c *fiber.Ctx) error {
	var input dto.DeleteAccountInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
	}
	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	if err := h.userService.DeleteAccount(c.UserContext(), currentUserID(c), input); err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "account deleted successfully"})
}

// Verify confirms the bearer token is still accepted and returns the
// account it belongs to. The middleware has already done the work.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	return h.Profile(c)
}

func (h *AuthHandler) GetAllUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	offset := c.QueryInt("offset", 0)

	users, err := h.userService.ListUsers(c.UserContext(), limit, offset)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"users": users})
}

func (h *AuthHandler) ForceLogout(c *fiber.Ctx) error {
	if err := h.userService.ForceLogout(c.UserContext(), c.Params("id")); err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "sessions revoked"})
}
