package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxChatLen = 4000

var (
	ErrChatEmpty   = fmt.Errorf("%w: message empty", ErrInvalidInput)
	ErrChatTooLong = fmt.Errorf("%w: message too long", ErrInvalidInput)
)

type ChatMessage struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID    uuid.UUID `json:"session_id" gorm:"type:uuid;index;not null"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null"`
	UserFullName string    `json:"user_full_name" gorm:"size:255"`
	Content      string    `json:"content" gorm:"type:text;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

func NewChatMessage(sessionID uuid.UUID, from Identity, content string, now time.Time) (*ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrChatEmpty
	}
	if len(content) > MaxChatLen {
		return nil, ErrChatTooLong
	}
	return &ChatMessage{
		ID:           uuid.New(),
		SessionID:    sessionID,
		UserID:       from.UserID,
		UserFullName: from.FullName,
		Content:      content,
		CreatedAt:    now,
	}, nil
}
