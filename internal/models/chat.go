package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatMode is the route a chat message took.
type ChatMode string

const (
	ModeDatabase       ChatMode = "database"
	ModeSmartRequest   ChatMode = "smart_request"
	ModeGeneralCooking ChatMode = "general_cooking"
	ModeImageAnalysis  ChatMode = "image_analysis"
)

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

type ChatSession struct {
	Base
	UserID        uuid.UUID     `gorm:"type:varchar(36);not null;index" json:"userId"`
	Title         string        `gorm:"size:200" json:"title"`
	LastMessageAt time.Time     `json:"lastMessageAt"`
	Messages      []ChatMessage `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

type ChatMessage struct {
	Base
	SessionID uuid.UUID `gorm:"type:varchar(36);not null;index" json:"sessionId"`
	Role      string    `gorm:"size:20;not null" json:"role"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Mode      ChatMode  `gorm:"size:32" json:"mode,omitempty"`
	ImageURL  string    `gorm:"size:512" json:"imageUrl,omitempty"`
}
