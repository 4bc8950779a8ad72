package task

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"taskpilot/chat-api/internal/domain/task"
	"taskpilot/chat-api/internal/infrastructure/database/entities"
	"taskpilot/chat-api/internal/utils/platformerrors"
)

// PostgresRepository implements task.Repository on gorm.
type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var _ task.Repository = (*PostgresRepository)(nil)

func (r *PostgresRepository) Create(ctx context.Context, t *task.Task) error {
	entity, err := entities.NewSchemaTask(t)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeInternal, "failed to encode task", err)
	}
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "failed to create task", err)
	}
	*t = *entity.EtoD()
	return nil
}

func (r *PostgresRepository) FindForOwner(ctx context.Context, id uint, ownerID string) (*task.Task, error) {
	var entity entities.SchemaTask
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound, "task not found", err)
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "failed to find task", err)
	}
	return entity.EtoD(), nil
}

func (r *PostgresRepository) ListForOwner(ctx context.Context, ownerID string, filter task.Filter) ([]task.Task, error) {
	query := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var rows []entities.SchemaTask
	if err := query.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "failed to list tasks", err)
	}

	// Tag filtering happens in memory; tag sets are small and the jsonb
	// containment operator would tie the query to postgres specifics.
	out := make([]task.Task, 0, len(rows))
	for i := range rows {
		t := rows[i].EtoD()
		if filter.Tag != nil && !hasTag(t.Tags, *filter.Tag) {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, t *task.Task) error {
	entity, err := entities.NewSchemaTask(t)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeInternal, "failed to encode task", err)
	}
	result := r.db.WithContext(ctx).
		Model(&entities.SchemaTask{}).
		Where("id = ? AND owner_id = ?", t.ID, t.OwnerID).
		Updates(map[string]any{
			"title":    entity.Title,
			"status":   entity.Status,
			"due_date": entity.DueDate,
			"tags":     entity.Tags,
		})
	if result.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "failed to update task", result.Error)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound, "task not found", nil)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id uint, ownerID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&entities.SchemaTask{})
	if result.Error != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError, "failed to delete task", result.Error)
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound, "task not found", nil)
	}
	return nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
