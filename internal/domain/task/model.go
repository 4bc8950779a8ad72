package task

import "time"

// Status is the lifecycle state of a task.
type Status string

const (
	StatusOpen Status = "open"
	StatusDone Status = "done"
)

// Task is a single TODO item scoped to one owner.
type Task struct {
	ID        uint
	OwnerID   string
	Title     string
	Status    Status
	DueDate   *time.Time
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Filter narrows task listings.
type Filter struct {
	Status *Status
	Tag    *string
}
