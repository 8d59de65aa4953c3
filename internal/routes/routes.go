package routes

import (
	"github.com/decisioniq/decisioniq-api/internal/config"
	"github.com/decisioniq/decisioniq-api/internal/handlers"
	"github.com/decisioniq/decisioniq-api/internal/middleware"
	"github.com/decisioniq/decisioniq-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	authService *services.AuthService,
	authHandler *handlers.AuthHandler,
	historyHandler *handlers.HistoryHandler,
	chatHandler *handlers.ChatHandler,
	uploadHandler *handlers.UploadHandler,
	healthHandler *handlers.HealthHandler,
) {
	protect := middleware.JWTProtected(cfg, authService)

	app.Get("/", healthHandler.Root)

	api := app.Group("/api")
	api.Get("/health", healthHandler.Check)

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/profile", protect, authHandler.Profile)
	auth.Put("/profile/password", protect, authHandler.UpdatePassword)

	history := api.Group("/history", protect)
	history.Post("/", historyHandler.Save)
	history.Get("/", historyHandler.List)
	history.Delete("/", historyHandler.Clear)
	history.Delete("/:id", historyHandler.Delete)

	api.Post("/chat", protect, chatHandler.Ask)
	api.Get("/chat/models", protect, chatHandler.Models)

	api.Post("/upload/dataset", protect, uploadHandler.Dataset)
}
