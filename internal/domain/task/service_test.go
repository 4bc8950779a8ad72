package task

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"taskpilot/chat-api/internal/utils/platformerrors"
)

type memoryRepo struct {
	nextID uint
	tasks  map[uint]Task
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, tasks: make(map[uint]Task)}
}

func (m *memoryRepo) Create(_ context.Context, t *Task) error {
	t.ID = m.nextID
	m.nextID++
	m.tasks[t.ID] = *t
	return nil
}

func (m *memoryRepo) FindForOwner(ctx context.Context, id uint, ownerID string) (*Task, error) {
	t, ok := m.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository,
			platformerrors.ErrorTypeNotFound, "task not found", nil)
	}
	copied := t
	return &copied, nil
}

func (m *memoryRepo) ListForOwner(_ context.Context, ownerID string, filter Filter) ([]Task, error) {
	var out []Task
	for id := uint(1); id < m.nextID; id++ {
		t, ok := m.tasks[id]
		if !ok || t.OwnerID != ownerID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Tag != nil {
			found := false
			for _, tag := range t.Tags {
				if tag == *filter.Tag {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *memoryRepo) Update(_ context.Context, t *Task) error {
	m.tasks[t.ID] = *t
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id uint, _ string) error {
	delete(m.tasks, id)
	return nil
}

func newTestService() (*ServiceImpl, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(repo, zerolog.Nop()), repo
}

func TestAddRejectsEmptyTitle(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Add(context.Background(), "alice", "   ", nil, nil)
	if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestAddNormalizesTags(t *testing.T) {
	svc, _ := newTestService()
	created, err := svc.Add(context.Background(), "alice", "buy milk", nil, []string{" Home ", "home", "", "Errands"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"home", "errands"}
	if len(created.Tags) != len(want) {
		t.Fatalf("tags = %v, want %v", created.Tags, want)
	}
	for i := range want {
		if created.Tags[i] != want[i] {
			t.Errorf("tags = %v, want %v", created.Tags, want)
			break
		}
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	svc, _ := newTestService()
	created, _ := svc.Add(context.Background(), "alice", "buy milk", nil, nil)

	first, err := svc.Complete(context.Background(), "alice", created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Complete(context.Background(), "alice", created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Status != StatusDone || second.Status != StatusDone {
		t.Error("task should remain done")
	}
}

func TestOwnerIsolation(t *testing.T) {
	svc, _ := newTestService()
	created, _ := svc.Add(context.Background(), "alice", "secret task", nil, nil)

	if _, err := svc.Complete(context.Background(), "bob", created.ID); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Errorf("complete by other owner: err = %v, want not found", err)
	}
	if err := svc.Delete(context.Background(), "bob", created.ID); !platformerrors.IsErrorType(err, platformerrors.ErrorTypeNotFound) {
		t.Errorf("delete by other owner: err = %v, want not found", err)
	}

	tasks, err := svc.List(context.Background(), "bob", Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("bob sees %d of alice's tasks", len(tasks))
	}
}

func TestListFilters(t *testing.T) {
	svc, _ := newTestService()
	svc.Add(context.Background(), "alice", "groceries", nil, []string{"home"})
	second, _ := svc.Add(context.Background(), "alice", "report", nil, []string{"work"})
	svc.Complete(context.Background(), "alice", second.ID)

	done := StatusDone
	tasks, err := svc.List(context.Background(), "alice", Filter{Status: &done})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "report" {
		t.Errorf("status filter returned %v", tasks)
	}

	tag := "home"
	tasks, err = svc.List(context.Background(), "alice", Filter{Tag: &tag})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "groceries" {
		t.Errorf("tag filter returned %v", tasks)
	}
}

func TestTagMergesAndDeduplicates(t *testing.T) {
	svc, _ := newTestService()
	created, _ := svc.Add(context.Background(), "alice", "groceries", nil, []string{"home"})

	updated, err := svc.Tag(context.Background(), "alice", created.ID, []string{"Home", "urgent"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.Tags) != 2 {
		t.Errorf("tags = %v, want [home urgent]", updated.Tags)
	}
}
