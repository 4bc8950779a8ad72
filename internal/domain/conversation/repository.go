package conversation

import (
	"context"
	"time"
)

// Repository persists conversation metadata.
type Repository interface {
	Create(ctx context.Context, conv *Conversation) error
	// FindForOwner fails with a NOT_FOUND error when the conversation does
	// not exist or belongs to a different owner.
	FindForOwner(ctx context.Context, id uint, ownerID string) (*Conversation, error)
	// DeleteOlderThan removes conversations created before cutoff together
	// with their messages, returning the number of conversations removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// MessageRepository persists individual conversation messages.
type MessageRepository interface {
	Append(ctx context.Context, msg *Message) error
	// ListRecent returns at most limit most recent messages, ascending by
	// creation order.
	ListRecent(ctx context.Context, conversationID uint, limit int) ([]Message, error)
	ListByConversationID(ctx context.Context, conversationID uint) ([]Message, error)
}
