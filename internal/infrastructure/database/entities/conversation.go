package entities

import (
	"time"

	"taskpilot/chat-api/internal/domain/conversation"
)

// SchemaConversation is the gorm entity for conversations.
type SchemaConversation struct {
	ID        uint      `gorm:"primaryKey"`
	OwnerID   string    `gorm:"type:varchar(255);not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

func (SchemaConversation) TableName() string {
	return "conversations"
}

func NewSchemaConversation(conv *conversation.Conversation) *SchemaConversation {
	return &SchemaConversation{
		ID:        conv.ID,
		OwnerID:   conv.OwnerID,
		CreatedAt: conv.CreatedAt,
	}
}

func (e *SchemaConversation) EtoD() *conversation.Conversation {
	return &conversation.Conversation{
		ID:        e.ID,
		OwnerID:   e.OwnerID,
		CreatedAt: e.CreatedAt,
	}
}
