package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBDriver    string
	DatabaseURL string

	// JWT
	JWTSecret string
	JWTExpiry time.Duration

	// Model providers
	ModelProvider  string
	GeminiAPIKey   string
	GeminiModel    string
	OpenAIAPIKey   string
	OpenAIModel    string
	ModelAllowlist string

	AITimeout time.Duration

	// Uploads
	UploadMaxBytes int64

	// Server
	Port        string
	FrontendURL string
	AppEnv      string
	SentryDSN   string

	// Logging
	LogRetentionDays int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, relying on environment variables")
	}

	return &Config{
		DBDriver:    getEnv("DB_DRIVER", "postgres"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: parseDuration(getEnv("JWT_EXPIRY", "720h"), 720*time.Hour),

		ModelProvider:  strings.ToLower(getEnv("MODEL_PROVIDER", "gemini")),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		ModelAllowlist: getEnv("MODEL_ALLOWLIST", ""),

		AITimeout: parseDuration(getEnv("AI_TIMEOUT", "60s"), 60*time.Second),

		UploadMaxBytes: int64(getEnvAsInt("UPLOAD_MAX_BYTES", 5*1024*1024)),

		Port:        getEnv("PORT", "4000"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),

		LogRetentionDays: getEnvAsInt("LOG_RETENTION_DAYS", 30),
	}
}

// Validate reports every missing setting the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL environment variable is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, errors.New("DB_DRIVER must be postgres or sqlite"))
	}
	switch c.ModelProvider {
	case "gemini", "openai":
	default:
		errs = append(errs, errors.New("MODEL_PROVIDER must be gemini or openai"))
	}
	return errors.Join(errs...)
}

// ModelAPIKey returns the key of the selected provider.
func (c *Config) ModelAPIKey() string {
	if c.ModelProvider == "openai" {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// DefaultModel returns the model used when a request does not pick one.
func (c *Config) DefaultModel() string {
	if c.ModelProvider == "openai" {
		return c.OpenAIModel
	}
	return c.GeminiModel
}

// AllowedModels lists the models a request may select. MODEL_ALLOWLIST wins
// over the provider defaults; the default model is always allowed.
func (c *Config) AllowedModels() []string {
	models := parseCSV(c.ModelAllowlist)
	if len(models) == 0 {
		if c.ModelProvider == "openai" {
			models = []string{c.OpenAIModel}
		} else {
			models = []string{"gemini-2.5-flash", "gemini-2.5-pro", "gemini-1.5-pro"}
		}
	}
	def := c.DefaultModel()
	for _, m := range models {
		if m == def {
			return models
		}
	}
	return append([]string{def}, models...)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
