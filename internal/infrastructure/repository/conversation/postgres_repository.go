package conversation

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"taskpilot/chat-api/internal/domain/conversation"
	"taskpilot/chat-api/internal/infrastructure/database/entities"
	"taskpilot/chat-api/internal/utils/platformerrors"
)

// PostgresRepository implements conversation.Repository on gorm.
type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ conversation.Repository = (*PostgresRepository)(nil)

func (r *PostgresRepository) Create(ctx context.Context, conv *conversation.Conversation) error {
	entity := entities.NewSchemaConversation(conv)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "failed to create conversation", err)
	}
	*conv = *entity.EtoD()
	return nil
}

func (r *PostgresRepository) FindForOwner(ctx context.Context, id uint, ownerID string) (*conversation.Conversation, error) {
	var entity entities.SchemaConversation
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound, "conversation not found", err)
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "failed to find conversation", err)
	}
	return entity.EtoD(), nil
}

func (r *PostgresRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subquery := tx.Model(&entities.SchemaConversation{}).
			Select("id").
			Where("created_at < ?", cutoff)

		if err := tx.Where("conversation_id IN (?)", subquery).
			Delete(&entities.SchemaMessage{}).Error; err != nil {
			return err
		}

		result := tx.Where("created_at < ?", cutoff).Delete(&entities.SchemaConversation{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "failed to delete old conversations", err)
	}
	return deleted, nil
}
