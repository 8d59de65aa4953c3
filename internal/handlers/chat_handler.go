package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/decisioniq/decisioniq-api/internal/assistant"
	"github.com/decisioniq/decisioniq-api/internal/dto"
	"github.com/decisioniq/decisioniq-api/internal/services"
	"github.com/decisioniq/decisioniq-api/internal/session"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatHandler struct {
	assistant      *assistant.Service
	historyService *services.HistoryService
	db             *gorm.DB

	pending sync.WaitGroup
}

func NewChatHandler(assistantService *assistant.Service, historyService *services.HistoryService, db *gorm.DB) *ChatHandler {
	return &ChatHandler{
		assistant:      assistantService,
		historyService: historyService,
		db:             db,
	}
}

// Ask answers a query with the model and records it in the caller's
// history in the background. Model failures still answer 200 with a
// plain-text explanation.
func (h *ChatHandler) Ask(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return respond(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return respond(c, fiber.StatusBadRequest, "Invalid request body")
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return respond(c, fiber.StatusBadRequest, "Query is required")
	}
	category, err := services.NormalizeCategory(req.Category)
	if err != nil {
		return writeError(c, h.db, "chat", err)
	}
	if _, err := h.assistant.ResolveModel(req.Model); err != nil {
		return writeError(c, h.db, "chat", err)
	}
	if !h.assistant.Configured() {
		return writeError(c, h.db, "chat", assistant.ErrNotConfigured)
	}

	resp, err := h.assistant.Ask(c.UserContext(), query, category, req.Model)
	if err != nil {
		if errors.Is(err, assistant.ErrModelNotAllowed) || errors.Is(err, assistant.ErrNotConfigured) {
			return writeError(c, h.db, "chat", err)
		}
		slog.Error("model request failed",
			"action", "chat",
			"user_id", userID.String(),
			"request_id", requestID(c),
			"error", err.Error(),
		)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		return c.JSON(assistant.UpstreamFailure(err))
	}

	h.record(userID, query, category, resp)
	return c.JSON(resp)
}

func (h *ChatHandler) Models(c *fiber.Ctx) error {
	def, _ := h.assistant.ResolveModel("")
	return c.JSON(dto.ModelsResponse{
		Default:    def,
		Models:     h.assistant.Models(),
		Categories: assistant.Categories,
	})
}

// Wait blocks until background history saves have finished.
func (h *ChatHandler) Wait() {
	h.pending.Wait()
}

// record saves the answer without holding up the response. A failed save
// is logged and otherwise dropped.
func (h *ChatHandler) record(userID uuid.UUID, query, category string, resp assistant.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("history encode failed", "action", "save_history", "user_id", userID.String(), "error", err.Error())
		return
	}

	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		if _, err := h.historyService.Save(userID, query, data, category); err != nil {
			slog.Error("history save failed", "action", "save_history", "user_id", userID.String(), "error", err.Error())
		}
	}()
}
