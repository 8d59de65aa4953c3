package handlers

import (
	"github.com/decisioniq/decisioniq-api/internal/dto"
	"github.com/decisioniq/decisioniq-api/internal/services"
	"github.com/decisioniq/decisioniq-api/internal/session"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService *services.AuthService
	db          *gorm.DB
}

func NewAuthHandler(authService *services.AuthService, db *gorm.DB) *AuthHandler {
	return &AuthHandler{authService: authService, db: db}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, fiber.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.authService.Register(&req)
	if err != nil {
		return writeError(c, h.db, "register", err)
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, fiber.StatusBadRequest, "Invalid request body")
	}

	resp, err := h.authService.Login(&req)
	if err != nil {
		return writeError(c, h.db, "login", err)
	}

	return c.JSON(resp)
}

func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return respond(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	resp, err := h.authService.Profile(userID)
	if err != nil {
		return writeError(c, h.db, "profile", err)
	}

	return c.JSON(resp)
}

func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return respond(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.UpdatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.authService.UpdatePassword(userID, &req); err != nil {
		return writeError(c, h.db, "update_password", err)
	}

	return c.JSON(dto.MessageResponse{Message: "Password updated successfully"})
}
