package routes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/Udit-exe/kriya-backend/internal/identity"
)

// RegisterOnboardingRoutes wires the onboarding endpoint used by the partner
// frontend: a single display name plus phone number, no token issued.
func RegisterOnboardingRoutes(r fiber.Router, ids *identity.Service, logger *slog.Logger) {
	r.Post("/onboarding", func(c *fiber.Ctx) error {
		var req struct {
			Name        string `json:"name"`
			PhoneNumber string `json:"ph_number"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}

		user, created, err := ids.Onboard(c.UserContext(), req.Name, req.PhoneNumber)
		if err != nil {
			if errors.Is(err, identity.ErrInvalidPhone) || errors.Is(err, identity.ErrMissingName) {
				return fiber.NewError(http.StatusBadRequest, err.Error())
			}
			logger.Error("onboarding failed", "error", err)
			return fiber.NewError(http.StatusServiceUnavailable, "onboarding temporarily unavailable")
		}

		message := "User already onboarded"
		status := http.StatusOK
		if created {
			message = "User onboarded successfully"
			status = http.StatusCreated
			logger.Info("onboarding completed",
				slog.String("user_id", user.ID),
				slog.String("phone_number", user.PhoneNumber),
			)
		}
		return c.Status(status).JSON(fiber.Map{
			"success":        true,
			"message":        message,
			"user_id":        user.ID,
			"phone_number":   user.PhoneNumber,
			"name":           user.FullName(),
			"already_exists": !created,
		})
	})
}
