package handlers

import (
	"errors"
	"log/slog"

	"github.com/decisioniq/decisioniq-api/internal/assistant"
	"github.com/decisioniq/decisioniq-api/internal/database"
	"github.com/decisioniq/decisioniq-api/internal/dataset"
	"github.com/decisioniq/decisioniq-api/internal/dto"
	"github.com/decisioniq/decisioniq-api/internal/services"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ErrorHandler is the Fiber fallback for errors returned by handlers. 5xx
// details are logged, never returned.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func respond(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: true, Message: message})
}

// writeError maps a service error to a status code. Unknown errors are 500s
// whose message depends on whether the database is reachable.
func writeError(c *fiber.Ctx, db *gorm.DB, action string, err error) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return respond(c, fiber.StatusBadRequest, verr.Message)
	case errors.Is(err, services.ErrEmailTaken):
		return respond(c, fiber.StatusConflict, "User already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		return respond(c, fiber.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, services.ErrWrongPassword):
		return respond(c, fiber.StatusUnauthorized, "Invalid current password")
	case errors.Is(err, services.ErrUserNotFound):
		return respond(c, fiber.StatusUnauthorized, "Not authorized, user not found")
	case errors.Is(err, services.ErrNotOwner):
		return respond(c, fiber.StatusForbidden, "Not authorized to delete this item")
	case errors.Is(err, services.ErrHistoryNotFound):
		return respond(c, fiber.StatusNotFound, "History item not found")
	case errors.Is(err, assistant.ErrModelNotAllowed):
		return respond(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, assistant.ErrNotConfigured):
		return respond(c, fiber.StatusInternalServerError, "Model API key missing")
	case errors.Is(err, dataset.ErrEmptyDataset):
		return respond(c, fiber.StatusBadRequest, "The uploaded Excel file is empty")
	case errors.Is(err, dataset.ErrUnreadable):
		return respond(c, fiber.StatusBadRequest, "The uploaded file is not a readable Excel workbook")
	}

	state := database.State(db)
	slog.Error(action+" failed",
		"action", action,
		"error", err.Error(),
		"request_id", requestID(c),
		"db_state", state,
	)
	if state != "connected" {
		return respond(c, fiber.StatusInternalServerError, "Database unavailable")
	}
	return respond(c, fiber.StatusInternalServerError, "Internal server error")
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return ""
}
