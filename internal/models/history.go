package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultCategory = "All"

// HistoryEntry is one saved query and the structured answer shown for it.
// Entries are never updated; they are only created and deleted.
type HistoryEntry struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index:idx_history_user_created,priority:1" json:"user"`
	Query     string         `gorm:"type:text;not null" json:"query"`
	Response  datatypes.JSON `gorm:"not null" json:"response"`
	Category  string         `gorm:"size:50;not null;default:'All'" json:"category"`
	CreatedAt time.Time      `gorm:"index:idx_history_user_created,priority:2,sort:desc" json:"createdAt"`
}

func (HistoryEntry) TableName() string {
	return "history_entries"
}

func (h *HistoryEntry) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.Category == "" {
		h.Category = DefaultCategory
	}
	return nil
}
