package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/decisioniq/decisioniq-api/internal/assistant"
	"github.com/decisioniq/decisioniq-api/internal/config"
	"github.com/decisioniq/decisioniq-api/internal/database"
	"github.com/decisioniq/decisioniq-api/internal/handlers"
	"github.com/decisioniq/decisioniq-api/internal/logging"
	"github.com/decisioniq/decisioniq-api/internal/middleware"
	"github.com/decisioniq/decisioniq-api/internal/routes"
	"github.com/decisioniq/decisioniq-api/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	stdout := logging.Setup(cfg.IsProduction())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Database log handler (ERROR+ async batch)
	dbLogHandler := logging.NewDBHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(stdout, dbLogHandler)))

	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetentionDays, cleanupDone)

	// Model provider; a missing key only fails model-backed requests.
	generator, err := assistant.NewGenerator(context.Background(), cfg)
	if err != nil {
		if errors.Is(err, assistant.ErrNotConfigured) {
			slog.Warn("model API key missing; chat and upload will answer 500", "provider", cfg.ModelProvider)
		} else {
			slog.Error("model client setup failed", "provider", cfg.ModelProvider, "error", err)
		}
		generator = nil
	}

	// Services
	authService := services.NewAuthService(database.DB, cfg)
	historyService := services.NewHistoryService(database.DB)
	assistantService := assistant.NewService(generator, cfg)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, database.DB)
	historyHandler := handlers.NewHistoryHandler(historyService, database.DB)
	chatHandler := handlers.NewChatHandler(assistantService, historyService, database.DB)
	uploadHandler := handlers.NewUploadHandler(assistantService, database.DB, cfg.UploadMaxBytes)
	healthHandler := handlers.NewHealthHandler(database.DB)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	// Fiber app; multipart overhead on top of the upload limit.
	app := fiber.New(fiber.Config{
		BodyLimit:    int(cfg.UploadMaxBytes) + 1024*1024,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		return c.Next()
	})

	routes.Setup(app, cfg, authService, authHandler, historyHandler, chatHandler, uploadHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "provider", cfg.ModelProvider, "model", cfg.DefaultModel())
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Let in-flight history saves land before the pool closes.
	chatHandler.Wait()

	if generator != nil {
		if err := generator.Close(); err != nil {
			slog.Error("model client close error", "error", err)
		}
	}

	close(cleanupDone)
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(database.DB); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}
