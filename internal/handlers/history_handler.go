package handlers

import (
	"github.com/decisioniq/decisioniq-api/internal/dto"
	"github.com/decisioniq/decisioniq-api/internal/services"
	"github.com/decisioniq/decisioniq-api/internal/session"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HistoryHandler struct {
	historyService *services.HistoryService
	db             *gorm.DB
}

func NewHistoryHandler(historyService *services.HistoryService, db *gorm.DB) *HistoryHandler {
	return &HistoryHandler{historyService: historyService, db: db}
}

func (h *HistoryHandler) Save(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return respond(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.SaveHistoryRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, fiber.StatusBadRequest, "Invalid request body")
	}

	entry, err := h.historyService.Save(userID, req.Query, req.Response, req.Category)
	if err != nil {
		return writeError(c, h.db, "save_history", err)
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *HistoryHandler) List(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return respond(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	entries, err := h.historyService.List(userID)
	if err != nil {
		return writeError(c, h.db, "list_history", err)
	}

	return c.JSON(entries)
}

func (h *HistoryHandler) Clear(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return respond(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	if _, err := h.historyService.ClearAll(userID); err != nil {
		return writeError(c, h.db, "clear_history", err)
	}

	return c.JSON(dto.MessageResponse{Message: "History cleared"})
}

func (h *HistoryHandler) Delete(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return respond(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	if err := h.historyService.DeleteOne(userID, c.Params("id")); err != nil {
		return writeError(c, h.db, "delete_history", err)
	}

	return c.JSON(dto.MessageResponse{Message: "History item removed"})
}
