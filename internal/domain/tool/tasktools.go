package tool

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"taskpilot/chat-api/internal/domain/task"
	"taskpilot/chat-api/internal/utils/platformerrors"
)

type addTaskArgs struct {
	Title   string   `json:"title" validate:"required,min=1,max=500" jsonschema:"description=Short title of the task"`
	DueDate string   `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02" jsonschema:"description=Optional due date in YYYY-MM-DD format"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=50" jsonschema:"description=Optional tags to attach"`
}

type listTasksArgs struct {
	Status string `json:"status,omitempty" validate:"omitempty,oneof=open done" jsonschema:"description=Filter by status: open or done"`
	Tag    string `json:"tag,omitempty" validate:"omitempty,min=1,max=50" jsonschema:"description=Filter by tag"`
}

type completeTaskArgs struct {
	TaskID uint `json:"task_id" validate:"required" jsonschema:"description=Identifier of the task to mark done"`
}

type deleteTaskArgs struct {
	TaskID uint `json:"task_id" validate:"required" jsonschema:"description=Identifier of the task to delete"`
}

type tagTaskArgs struct {
	TaskID uint     `json:"task_id" validate:"required" jsonschema:"description=Identifier of the task to tag"`
	Tags   []string `json:"tags" validate:"required,min=1,dive,min=1,max=50" jsonschema:"description=Tags to add to the task"`
}

// NewTaskRegistry builds the registry wired to the task service. This is
// the complete tool surface of the assistant.
func NewTaskRegistry(tasks task.Service, logger zerolog.Logger) *Registry {
	r := &Registry{
		entries: make(map[Name]entry),
		logger:  logger.With().Str("component", "tool_registry").Logger(),
	}

	register(r, NameAddTask, "Create a new task for the current user.",
		func(ctx context.Context, ownerID string, args addTaskArgs) (*Result, error) {
			var due *time.Time
			if args.DueDate != "" {
				parsed, err := time.Parse("2006-01-02", args.DueDate)
				if err != nil {
					return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
						platformerrors.ErrorTypeValidation, "due_date must be YYYY-MM-DD", err)
				}
				due = &parsed
			}
			created, err := tasks.Add(ctx, ownerID, args.Title, due, args.Tags)
			if err != nil {
				return toolError(ctx, err)
			}
			return &Result{Data: taskToMap(created)}, nil
		})

	register(r, NameListTasks, "List the current user's tasks, optionally filtered by status or tag.",
		func(ctx context.Context, ownerID string, args listTasksArgs) (*Result, error) {
			filter := task.Filter{}
			if args.Status != "" {
				status := task.Status(args.Status)
				filter.Status = &status
			}
			if args.Tag != "" {
				filter.Tag = &args.Tag
			}
			found, err := tasks.List(ctx, ownerID, filter)
			if err != nil {
				return toolError(ctx, err)
			}
			items := make([]map[string]any, 0, len(found))
			for i := range found {
				items = append(items, taskToMap(&found[i]))
			}
			return &Result{Data: map[string]any{"tasks": items, "count": len(items)}}, nil
		})

	register(r, NameCompleteTask, "Mark a task as done.",
		func(ctx context.Context, ownerID string, args completeTaskArgs) (*Result, error) {
			completed, err := tasks.Complete(ctx, ownerID, args.TaskID)
			if err != nil {
				return toolError(ctx, err)
			}
			return &Result{Data: taskToMap(completed)}, nil
		})

	register(r, NameDeleteTask, "Delete a task permanently.",
		func(ctx context.Context, ownerID string, args deleteTaskArgs) (*Result, error) {
			if err := tasks.Delete(ctx, ownerID, args.TaskID); err != nil {
				return toolError(ctx, err)
			}
			return &Result{Data: map[string]any{"deleted": true, "task_id": args.TaskID}}, nil
		})

	register(r, NameTagTask, "Add tags to an existing task.",
		func(ctx context.Context, ownerID string, args tagTaskArgs) (*Result, error) {
			tagged, err := tasks.Tag(ctx, ownerID, args.TaskID, args.Tags)
			if err != nil {
				return toolError(ctx, err)
			}
			return &Result{Data: taskToMap(tagged)}, nil
		})

	return r
}

// toolError converts domain failures into in-band tool results so the
// model can recover, except validation errors which propagate to the
// caller.
func toolError(ctx context.Context, err error) (*Result, error) {
	if platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		return nil, err
	}
	return &Result{
		IsError: true,
		Error:   platformerrors.SafeMessage(err, "tool execution failed"),
	}, nil
}

func taskToMap(t *task.Task) map[string]any {
	out := map[string]any{
		"task_id": t.ID,
		"title":   t.Title,
		"status":  string(t.Status),
	}
	if t.DueDate != nil {
		out["due_date"] = t.DueDate.Format("2006-01-02")
	}
	if len(t.Tags) > 0 {
		out["tags"] = t.Tags
	}
	return out
}
