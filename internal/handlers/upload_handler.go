package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"

	"github.com/decisioniq/decisioniq-api/internal/assistant"
	"github.com/decisioniq/decisioniq-api/internal/dataset"
	"github.com/decisioniq/decisioniq-api/internal/session"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var excelMIMETypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-excel": true,
}

type UploadHandler struct {
	assistant *assistant.Service
	db        *gorm.DB
	maxBytes  int64
}

func NewUploadHandler(assistantService *assistant.Service, db *gorm.DB, maxBytes int64) *UploadHandler {
	return &UploadHandler{assistant: assistantService, db: db, maxBytes: maxBytes}
}

// Dataset analyzes the first sheet of an uploaded workbook. The result is
// returned directly and not saved to history.
func (h *UploadHandler) Dataset(c *fiber.Ctx) error {
	userID, err := session.GetUserID(c)
	if err != nil {
		return respond(c, fiber.StatusUnauthorized, "Unauthorized")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return respond(c, fiber.StatusBadRequest, "No file uploaded")
	}
	if h.maxBytes > 0 && file.Size > h.maxBytes {
		return respond(c, fiber.StatusBadRequest, fmt.Sprintf("File too large (max %dMB)", h.maxBytes/(1<<20)))
	}
	mediaType, _, err := mime.ParseMediaType(file.Header.Get("Content-Type"))
	if err != nil || !excelMIMETypes[mediaType] {
		return respond(c, fiber.StatusBadRequest, "Only Excel files are allowed!")
	}
	if !h.assistant.Configured() {
		return writeError(c, h.db, "upload_dataset", assistant.ErrNotConfigured)
	}

	f, err := file.Open()
	if err != nil {
		return writeError(c, h.db, "upload_dataset", err)
	}
	defer f.Close()

	rows, err := dataset.Parse(f)
	if err != nil {
		return writeError(c, h.db, "upload_dataset", err)
	}

	resp, err := h.assistant.AnalyzeDataset(c.UserContext(), rows)
	if err != nil {
		if errors.Is(err, assistant.ErrNotConfigured) {
			return writeError(c, h.db, "upload_dataset", err)
		}
		slog.Error("dataset analysis failed",
			"action", "upload_dataset",
			"user_id", userID.String(),
			"request_id", requestID(c),
			"rows", len(rows),
			"error", err.Error(),
		)
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		return respond(c, fiber.StatusInternalServerError, "Analysis failed: "+err.Error())
	}

	return c.JSON(resp)
}
