package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

const apiKeyHeader = "X-API-Key"

// APIKey guards partner-facing endpoints with a shared secret header. The
// comparison is constant-time.
func APIKey(expected string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get(apiKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			return fiber.NewError(http.StatusForbidden, "Invalid API key")
		}
		return c.Next()
	}
}
