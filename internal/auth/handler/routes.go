package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Pelan2022/Koulio/pkg/constant"
)

func RegisterRoutes(app *fiber.App, h *AuthHandler, auditHandler *AuditHandler) {
	auth := app.Group("/auth")

	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/refresh", h.Refresh)

	auth.Post("/logout", h.RequireAuth(), h.Logout)
	auth.Get("/profile", h.RequireAuth(), h.Profile)
	auth.Put("/profile", h.RequireAuth(), h.UpdateProfile)
	auth.Post("/change-password", h.RequireAuth(), h.ChangePassword)
	auth.Delete("/account", h.RequireAuth(), h.DeleteAccount)
	auth.Get("/verify", h.RequireAuth(), h.Verify)

	admin := auth.Group("/admin", h.RequireAuth(), h.RequireRole(constant.RoleAdmin))
	admin.Get("/users", h.GetAllUsers)
	admin.Get("/audit-logs", auditHandler.List)
	admin.Delete("/users/:id/sessions", h.ForceLogout)
}
