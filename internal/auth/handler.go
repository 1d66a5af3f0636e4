package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Udit-exe/kriya-backend/internal/identity"
	"github.com/Udit-exe/kriya-backend/internal/notification"
)

// Handler exposes auth endpoints for register/validate/logout.
type Handler struct {
	ids      *identity.Service
	svc      *Service
	notifier notification.Notifier
	logger   *slog.Logger
}

func NewHandler(ids *identity.Service, svc *Service, notifier notification.Notifier, logger *slog.Logger) *Handler {
	return &Handler{ids: ids, svc: svc, notifier: notifier, logger: logger}
}

type userPayload struct {
	ID          string    `json:"id"`
	PhoneNumber string    `json:"phone_number"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserPayload(u identity.User) userPayload {
	return userPayload{
		ID:          u.ID,
		PhoneNumber: u.PhoneNumber,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
	}
}

type registerRequest struct {
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
}

type registerResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Token     string      `json:"token"`
	User      userPayload `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Register creates or refreshes the account for a phone number and issues a
// fresh token either way.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, created, err := h.ids.RegisterOrLogin(c.UserContext(), identity.Registration{
		PhoneNumber: req.PhoneNumber,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
	})
	if err != nil {
		if errors.Is(err, identity.ErrInvalidPhone) || errors.Is(err, identity.ErrMissingName) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		h.logger.Error("register failed", "error", err)
		return fiber.NewError(http.StatusServiceUnavailable, "registration temporarily unavailable")
	}

	signed, expiresAt, err := h.svc.Issue(user)
	if err != nil {
		h.logger.Error("issue token failed", "user_id", user.ID, "error", err)
		return fiber.NewError(http.StatusInternalServerError, "could not issue token")
	}

	message := "Login successful"
	status := http.StatusOK
	if created {
		message = "Registration successful"
		status = http.StatusCreated
		if h.notifier != nil {
			_ = h.notifier.Send(c.UserContext(), notification.Message{
				Kind:        notification.KindWelcome,
				Destination: user.PhoneNumber,
				Body:        "Welcome to Kriya, " + user.FirstName,
			})
		}
	}
	return c.Status(status).JSON(registerResponse{
		Success:   true,
		Message:   message,
		Token:     signed,
		User:      toUserPayload(user),
		ExpiresAt: expiresAt,
	})
}

type validateRequest struct {
	Token string `json:"token"`
}

type validateResponse struct {
	Valid   bool         `json:"valid"`
	User    *userPayload `json:"user,omitempty"`
	Message string       `json:"message,omitempty"`
}

// ValidateToken is the partner-facing validation endpoint. Every token-level
// rejection produces the same response body so the caller cannot probe which
// check failed; the specific reason goes to the log only.
func (h *Handler) ValidateToken(c *fiber.Ctx) error {
	var req validateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	user, _, err := h.svc.Validate(c.UserContext(), req.Token)
	if err != nil {
		if !IsTokenError(err) {
			h.logger.Error("token validation failed", "error", err)
			return fiber.NewError(http.StatusServiceUnavailable, "validation temporarily unavailable")
		}
		h.logger.Warn("token rejected", "reason", err.Error(), "path", c.Path())
		return c.Status(http.StatusUnauthorized).JSON(validateResponse{Valid: false, Message: "Invalid or expired token"})
	}

	payload := toUserPayload(user)
	return c.Status(http.StatusOK).JSON(validateResponse{Valid: true, User: &payload, Message: "Token is valid"})
}

// UserInfo returns the account behind a valid token.
func (h *Handler) UserInfo(c *fiber.Ctx) error {
	tokenString := c.Query("token")
	if tokenString == "" {
		return fiber.NewError(http.StatusBadRequest, "token is required")
	}

	user, _, err := h.svc.Validate(c.UserContext(), tokenString)
	if err != nil {
		return h.rejectToken(c, err)
	}

	return c.Status(http.StatusOK).JSON(toUserPayload(user))
}

// Logout validates the presented token and revokes its subject, stranding
// every token issued to that user so far.
func (h *Handler) Logout(c *fiber.Ctx) error {
	tokenString := c.Query("token")
	if tokenString == "" {
		return fiber.NewError(http.StatusBadRequest, "token is required")
	}

	user, _, err := h.svc.Validate(c.UserContext(), tokenString)
	if err != nil {
		return h.rejectToken(c, err)
	}

	version, err := h.svc.Revoke(c.UserContext(), user.ID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return fiber.NewError(http.StatusNotFound, "nothing to revoke")
		}
		h.logger.Error("revoke failed", "user_id", user.ID, "error", err)
		return fiber.NewError(http.StatusServiceUnavailable, "logout temporarily unavailable")
	}

	h.logger.Info("user logged out", "user_id", user.ID, "token_version", version)
	if h.notifier != nil {
		_ = h.notifier.Send(c.UserContext(), notification.Message{
			Kind:        notification.KindLogout,
			Destination: user.PhoneNumber,
			Body:        "You have been signed out on all devices",
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "message": "Logged out successfully"})
}

// rejectToken collapses every token-level rejection into one generic 401 and
// logs the actual reason.
func (h *Handler) rejectToken(c *fiber.Ctx, err error) error {
	if IsTokenError(err) {
		h.logger.Warn("token rejected", "reason", err.Error(), "path", c.Path())
		return fiber.NewError(http.StatusUnauthorized, "Invalid or expired token")
	}
	h.logger.Error("token validation failed", "error", err)
	return fiber.NewError(http.StatusServiceUnavailable, "validation temporarily unavailable")
}
