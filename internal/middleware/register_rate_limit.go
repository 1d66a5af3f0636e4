package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Udit-exe/kriya-backend/internal/identity"
)

// RegisterRateLimit limits register/login attempts per phone number (falling
// back to client IP) using Redis if available. Registration doubles as login
// here, so this is the brute-force gate for the whole issuance path.
func RegisterRateLimit(cache *redis.Client, maxPerMin int) fiber.Handler {
	if maxPerMin <= 0 {
		maxPerMin = 5
	}
	return func(c *fiber.Ctx) error {
		if cache == nil {
			return c.Next() // no-op without Redis
		}
		var req struct {
			PhoneNumber string `json:"phone_number"`
		}
		_ = c.BodyParser(&req)
		key := strings.TrimSpace(req.PhoneNumber)
		if canonical, err := identity.CanonicalPhone(key); err == nil {
			key = canonical
		}
		if key == "" {
			key = c.IP()
		}
		redisKey := "rl:register:" + key
		cnt, err := cache.Incr(c.UserContext(), redisKey).Result()
		if err == nil && cnt == 1 {
			cache.Expire(c.UserContext(), redisKey, time.Minute)
		}
		if err != nil {
			return c.Next() // fail-open on cache errors
		}
		if cnt > int64(maxPerMin) {
			return fiber.NewError(http.StatusTooManyRequests, "too many attempts, try again later")
		}
		return c.Next()
	}
}
