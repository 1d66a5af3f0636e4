package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestAPIKey(t *testing.T) {
	app := fiber.New()
	app.Use(APIKey("expected-secret"))
	app.Post("/guarded", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	cases := []struct {
		name   string
		key    string
		status int
	}{
		{"missing", "", fiber.StatusForbidden},
		{"wrong", "wrong-secret", fiber.StatusForbidden},
		{"correct", "expected-secret", fiber.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(fiber.MethodPost, "/guarded", nil)
		if tc.key != "" {
			req.Header.Set(apiKeyHeader, tc.key)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: app.Test: %v", tc.name, err)
		}
		if resp.StatusCode != tc.status {
			t.Fatalf("%s: expected %d got %d", tc.name, tc.status, resp.StatusCode)
		}
	}
}
