package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/decisioniq/decisioniq-api/internal/models"
	"github.com/decisioniq/decisioniq-api/internal/session"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const maxCategoryLength = 50

var (
	ErrHistoryNotFound = errors.New("history item not found")
	ErrNotOwner        = errors.New("not authorized to delete this item")
)

type HistoryService struct {
	db *gorm.DB
}

func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{db: db}
}

// Save stores one query and its answer object. A blank category is stored
// as "All".
func (s *HistoryService) Save(userID uuid.UUID, query string, response json.RawMessage, category string) (*models.HistoryEntry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("query is required")
	}
	if !isObject(response) {
		return nil, invalid("response must be a JSON object")
	}
	category, err := NormalizeCategory(category)
	if err != nil {
		return nil, err
	}

	entry := models.HistoryEntry{
		UserID:   userID,
		Query:    query,
		Response: datatypes.JSON(bytes.TrimSpace(response)),
		Category: category,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to save history: %w", err)
	}
	return &entry, nil
}

// List returns the user's entries, newest first.
func (s *HistoryService) List(userID uuid.UUID) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry
	err := s.db.Scopes(session.OwnedBy(userID)).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return entries, nil
}

// ClearAll removes every entry of the user. Clearing an empty history is
// not an error.
func (s *HistoryService) ClearAll(userID uuid.UUID) (int64, error) {
	result := s.db.Scopes(session.OwnedBy(userID)).Delete(&models.HistoryEntry{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear history: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteOne removes a single entry after checking that userID owns it. An
// id that cannot name an entry is reported as not found.
func (s *HistoryService) DeleteOne(userID uuid.UUID, id string) error {
	entryID, err := uuid.Parse(id)
	if err != nil {
		return ErrHistoryNotFound
	}

	var entry models.HistoryEntry
	if err := s.db.First(&entry, "id = ?", entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHistoryNotFound
		}
		return fmt.Errorf("failed to load history item: %w", err)
	}

	if entry.UserID != userID {
		return ErrNotOwner
	}

	return s.db.Delete(&entry).Error
}

// NormalizeCategory trims the label and applies the default.
func NormalizeCategory(category string) (string, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return models.DefaultCategory, nil
	}
	if utf8.RuneCountInString(category) > maxCategoryLength {
		return "", invalid("category must be at most %d characters", maxCategoryLength)
	}
	return category, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed)
}
