package task

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"taskpilot/chat-api/internal/utils/platformerrors"
)

// Service exposes the task operations the assistant tools are built on.
type Service interface {
	Add(ctx context.Context, ownerID, title string, dueDate *time.Time, tags []string) (*Task, error)
	List(ctx context.Context, ownerID string, filter Filter) ([]Task, error)
	Complete(ctx context.Context, ownerID string, id uint) (*Task, error)
	Delete(ctx context.Context, ownerID string, id uint) error
	Tag(ctx context.Context, ownerID string, id uint, tags []string) (*Task, error)
}

type ServiceImpl struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *ServiceImpl {
	return &ServiceImpl{
		repo:   repo,
		logger: logger.With().Str("component", "task_service").Logger(),
	}
}

func (s *ServiceImpl) Add(ctx context.Context, ownerID, title string, dueDate *time.Time, tags []string) (*Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain,
			platformerrors.ErrorTypeValidation, "task title must not be empty", nil)
	}

	t := &Task{
		OwnerID: ownerID,
		Title:   title,
		Status:  StatusOpen,
		DueDate: dueDate,
		Tags:    normalizeTags(tags),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info().Uint("task_id", t.ID).Msg("task created")
	return t, nil
}

func (s *ServiceImpl) List(ctx context.Context, ownerID string, filter Filter) ([]Task, error) {
	return s.repo.ListForOwner(ctx, ownerID, filter)
}

func (s *ServiceImpl) Complete(ctx context.Context, ownerID string, id uint) (*Task, error) {
	t, err := s.repo.FindForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	if t.Status == StatusDone {
		return t, nil
	}
	t.Status = StatusDone
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.logger.Info().Uint("task_id", t.ID).Msg("task completed")
	return t, nil
}

func (s *ServiceImpl) Delete(ctx context.Context, ownerID string, id uint) error {
	if _, err := s.repo.FindForOwner(ctx, id, ownerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return err
	}
	s.logger.Info().Uint("task_id", id).Msg("task deleted")
	return nil
}

func (s *ServiceImpl) Tag(ctx context.Context, ownerID string, id uint, tags []string) (*Task, error) {
	t, err := s.repo.FindForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}
	t.Tags = mergeTags(t.Tags, tags)
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func mergeTags(existing, incoming []string) []string {
	return normalizeTags(append(append([]string(nil), existing...), incoming...))
}
