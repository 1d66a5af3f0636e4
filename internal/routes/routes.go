package routes

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/Udit-exe/kriya-backend/internal/auth"
	"github.com/Udit-exe/kriya-backend/internal/config"
	"github.com/Udit-exe/kriya-backend/internal/identity"
	"github.com/Udit-exe/kriya-backend/internal/middleware"
	"github.com/Udit-exe/kriya-backend/internal/notification"
	"github.com/Udit-exe/kriya-backend/internal/token"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health and service banner
	RegisterHealthRoutes(app, d)

	// Services and handlers
	var userRepo identity.Repository
	if d.DB != nil {
		userRepo = identity.NewPostgresRepository(d.DB)
	} else {
		userRepo = identity.NewMemoryRepository()
	}
	identitySvc := identity.NewService(userRepo)

	codec, err := token.NewCodec([]byte(d.Cfg.JWTSecret), d.Cfg.JWTAlgorithm, d.Cfg.Issuer, nil)
	if err != nil {
		return fmt.Errorf("build token codec: %w", err)
	}
	authSvc := auth.NewService(codec, userRepo, d.Cfg.TokenLifetime, nil)
	notifier := notification.NewLoggerNotifier(d.Logger)
	authHandler := auth.NewHandler(identitySvc, authSvc, notifier, d.Logger)

	// API routes
	api := app.Group("/api")

	rateLimiter := middleware.RegisterRateLimit(d.Cache, d.Cfg.LoginRateLimit)
	apiKey := middleware.APIKey(d.Cfg.PartnerAPIKey)
	RegisterAuthRoutes(api, authHandler, rateLimiter, apiKey)
	RegisterOnboardingRoutes(app, identitySvc, d.Logger)

	// Protected routes
	protected := api.Group("", middleware.BearerAuth(authSvc))
	protected.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return c.SendStatus(fiber.StatusUnauthorized)
		}
		user, err := userRepo.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "user not found")
		}
		return c.JSON(fiber.Map{
			"user_id":       user.ID,
			"phone_number":  user.PhoneNumber,
			"first_name":    user.FirstName,
			"last_name":     user.LastName,
			"email":         user.Email,
			"token_version": user.TokenVersion,
			"created_at":    user.CreatedAt,
		})
	})

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
