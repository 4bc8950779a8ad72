package conversation

import (
	"context"

	"gorm.io/gorm"

	"taskpilot/chat-api/internal/domain/conversation"
	"taskpilot/chat-api/internal/infrastructure/database/entities"
	"taskpilot/chat-api/internal/utils/platformerrors"
)

// MessageRepository implements conversation.MessageRepository on gorm.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

var _ conversation.MessageRepository = (*MessageRepository)(nil)

func (r *MessageRepository) Append(ctx context.Context, msg *conversation.Message) error {
	entity, err := entities.NewSchemaMessage(msg)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeInternal, "failed to encode message", err)
	}
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "failed to append message", err)
	}
	*msg = *entity.EtoD()
	return nil
}

// ListRecent fetches the newest messages first, then reverses so callers
// receive ascending creation order.
func (r *MessageRepository) ListRecent(ctx context.Context, conversationID uint, limit int) ([]conversation.Message, error) {
	var rows []entities.SchemaMessage
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "failed to list recent messages", err)
	}

	out := make([]conversation.Message, len(rows))
	for i, row := range rows {
		out[len(rows)-1-i] = *row.EtoD()
	}
	return out, nil
}

func (r *MessageRepository) ListByConversationID(ctx context.Context, conversationID uint) ([]conversation.Message, error) {
	var rows []entities.SchemaMessage
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "failed to list messages", err)
	}

	out := make([]conversation.Message, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].EtoD())
	}
	return out, nil
}
