package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Udit-exe/kriya-backend/internal/auth"
)

// BearerAuth returns a middleware that validates JWT bearer tokens end to end
// (structure, signature, issuer, expiry, token version) and exposes the
// resolved user via locals.
func BearerAuth(svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])

		user, claims, err := svc.Validate(c.UserContext(), tokenStr)
		if err != nil {
			if auth.IsTokenError(err) {
				return fiber.NewError(http.StatusUnauthorized, "Invalid or expired token")
			}
			return fiber.NewError(http.StatusServiceUnavailable, "validation temporarily unavailable")
		}

		c.Locals("user_id", user.ID)
		c.Locals("token_version", claims.TokenVersion)
		return c.Next()
	}
}
