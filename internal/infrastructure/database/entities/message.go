package entities

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"taskpilot/chat-api/internal/domain/conversation"
)

// SchemaMessage is the gorm entity for conversation messages. ToolCalls
// stores the assistant's tool audit as jsonb.
type SchemaMessage struct {
	ID             uint           `gorm:"primaryKey"`
	ConversationID uint           `gorm:"not null;index:idx_messages_conv_created,priority:1"`
	OwnerID        string         `gorm:"type:varchar(255);not null;index"`
	Role           string         `gorm:"type:varchar(16);not null"`
	Content        string         `gorm:"type:text;not null"`
	ToolCalls      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"autoCreateTime;index:idx_messages_conv_created,priority:2"`
}

func (SchemaMessage) TableName() string {
	return "messages"
}

func NewSchemaMessage(msg *conversation.Message) (*SchemaMessage, error) {
	entity := &SchemaMessage{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		OwnerID:        msg.OwnerID,
		Role:           string(msg.Role),
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
	if len(msg.ToolCalls) > 0 {
		raw, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return nil, err
		}
		entity.ToolCalls = datatypes.JSON(raw)
	}
	return entity, nil
}

func (e *SchemaMessage) EtoD() *conversation.Message {
	msg := &conversation.Message{
		ID:             e.ID,
		ConversationID: e.ConversationID,
		OwnerID:        e.OwnerID,
		Role:           conversation.Role(e.Role),
		Content:        e.Content,
		CreatedAt:      e.CreatedAt,
	}
	if len(e.ToolCalls) > 0 {
		// Unreadable audit data is dropped rather than failing the read.
		_ = json.Unmarshal(e.ToolCalls, &msg.ToolCalls)
	}
	return msg
}
