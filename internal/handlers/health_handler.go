package handlers

import (
	"time"

	"github.com/decisioniq/decisioniq-api/internal/database"
	"github.com/decisioniq/decisioniq-api/internal/dto"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	started time.Time
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now()}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	state := database.State(h.db)
	connected := state == "connected"

	status := "ok"
	if !connected {
		status = "degraded"
	}

	return c.JSON(dto.HealthResponse{
		Status:    status,
		Uptime:    time.Since(h.started).Seconds(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Database: dto.DatabaseStatus{
			Connected: connected,
			State:     state,
		},
	})
}

func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.SendString("API is running...")
}
