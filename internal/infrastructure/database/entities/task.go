package entities

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"taskpilot/chat-api/internal/domain/task"
)

// SchemaTask is the gorm entity for tasks. Tags are stored as jsonb.
type SchemaTask struct {
	ID        uint           `gorm:"primaryKey"`
	OwnerID   string         `gorm:"type:varchar(255);not null;index"`
	Title     string         `gorm:"type:varchar(500);not null"`
	Status    string         `gorm:"type:varchar(16);not null;default:open;index"`
	DueDate   *time.Time     `gorm:"type:date"`
	Tags      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (SchemaTask) TableName() string {
	return "tasks"
}

func NewSchemaTask(t *task.Task) (*SchemaTask, error) {
	entity := &SchemaTask{
		ID:        t.ID,
		OwnerID:   t.OwnerID,
		Title:     t.Title,
		Status:    string(t.Status),
		DueDate:   t.DueDate,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
	if len(t.Tags) > 0 {
		raw, err := json.Marshal(t.Tags)
		if err != nil {
			return nil, err
		}
		entity.Tags = datatypes.JSON(raw)
	}
	return entity, nil
}

func (e *SchemaTask) EtoD() *task.Task {
	t := &task.Task{
		ID:        e.ID,
		OwnerID:   e.OwnerID,
		Title:     e.Title,
		Status:    task.Status(e.Status),
		DueDate:   e.DueDate,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if len(e.Tags) > 0 {
		_ = json.Unmarshal(e.Tags, &t.Tags)
	}
	return t
}
