package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatHistory records one question and its answer. Sources are the filenames
// cited at the time of the answer; they are a snapshot and are not updated
// when a document is renamed or deleted.
type ChatHistory struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserMessage      string    `gorm:"not null" json:"user_message"`
	AssistantMessage string    `gorm:"not null" json:"assistant_message"`
	Sources          []string  `gorm:"serializer:json;type:jsonb;not null" json:"sources"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}

// TableName keeps the table name singular.
func (ChatHistory) TableName() string {
	return "chat_history"
}

func CreateChatHistory(db *gorm.DB, entry *ChatHistory) error {
	if entry.Sources == nil {
		entry.Sources = []string{}
	}
	return db.Create(entry).Error
}

// GetChatHistory returns up to limit entries, newest first.
func GetChatHistory(db *gorm.DB, limit int) ([]ChatHistory, error) {
	entries := make([]ChatHistory, 0)
	err := db.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// ClearChatHistory deletes every entry.
func ClearChatHistory(db *gorm.DB) error {
	return db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&ChatHistory{}).Error
}
