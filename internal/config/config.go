package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string        `env:"APP_NAME" envDefault:"Kriya Authentication Backend"`
	AppEnv         string        `env:"APP_ENV" envDefault:"development"`
	Port           string        `env:"PORT" envDefault:"8001"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	RedisURL       string        `env:"REDIS_URL"`
	JWTSecret      string        `env:"JWT_SECRET_KEY"`
	JWTAlgorithm   string        `env:"JWT_ALGORITHM" envDefault:"HS256"`
	TokenLifetime  time.Duration `env:"TOKEN_LIFETIME" envDefault:"24h"`
	Issuer         string        `env:"TOKEN_ISSUER" envDefault:"kriya-backend"`
	PartnerAPIKey  string        `env:"PLANE_API_KEY"`
	ShutdownPeriod time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LoginRateLimit int           `env:"LOGIN_RATE_LIMIT_PER_MIN" envDefault:"5"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}
	if len(cfg.JWTSecret) < 32 {
		return Config{}, fmt.Errorf("JWT_SECRET_KEY must be set to at least 32 characters")
	}
	if cfg.PartnerAPIKey == "" {
		return Config{}, fmt.Errorf("PLANE_API_KEY must be set")
	}
	switch cfg.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return Config{}, fmt.Errorf("unsupported JWT_ALGORITHM %q", cfg.JWTAlgorithm)
	}
	if cfg.TokenLifetime <= 0 {
		return Config{}, fmt.Errorf("TOKEN_LIFETIME must be positive")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}
