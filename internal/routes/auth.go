package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Udit-exe/kriya-backend/internal/auth"
)

// RegisterAuthRoutes wires authentication endpoints. validate-token is
// partner-facing and sits behind the shared API key; register doubles as
// login and carries the per-phone rate limit.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter, apiKey fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/register", rateLimiter, h.Register)
	} else {
		group.Post("/register", h.Register)
	}
	group.Post("/validate-token", apiKey, h.ValidateToken)
	group.Get("/user", h.UserInfo)
	group.Delete("/logout", h.Logout)
}
