package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

// TaskService coordinates task level operations backed by repositories. The
// owner argument scopes every call; there is no unscoped variant.
type TaskService interface {
	CreateTask(ctx context.Context, owner int64, input TaskInput) (*domain.Task, error)
	GetTask(ctx context.Context, owner, id int64) (*domain.Task, error)
	ListTasks(ctx context.Context, owner int64, filter repository.TaskFilter) (*TaskPage, error)
	ListAllTasks(ctx context.Context, owner int64) ([]domain.Task, error)
	UpdateTask(ctx context.Context, owner, id int64, update TaskUpdate) (*domain.Task, error)
	DeleteTask(ctx context.Context, owner, id int64) error
	Stats(ctx context.Context, owner int64) (*repository.TaskStats, error)
}

// TaskInput is the caller-supplied part of a new task. Ownership comes from
// the owner argument only.
type TaskInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
	DueDate     *time.Time
}

// TaskUpdate is a partial update; nil fields are left alone. ClearDueDate
// removes the due date and wins over DueDate.
type TaskUpdate struct {
	Title        *string
	Description  *string
	Status       *domain.TaskStatus
	Priority     *domain.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
}

// TaskPage is one page of a listing.
type TaskPage struct {
	Tasks      []domain.Task
	Pagination repository.Pagination
}

type taskService struct {
	tasks repository.TaskRepository
	now   func() time.Time
}

func NewTaskService(tasks repository.TaskRepository) TaskService {
	return &taskService{
		tasks: tasks,
		now:   time.Now,
	}
}

func (s *taskService) CreateTask(ctx context.Context, owner int64, input TaskInput) (*domain.Task, error) {
	task := domain.NewTask(owner, input.Title, input.Description, input.Status, input.Priority, utcPtr(input.DueDate), s.now())
	if err := task.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) GetTask(ctx context.Context, owner, id int64) (*domain.Task, error) {
	task, err := s.tasks.Get(ctx, owner, id)
	if err != nil {
		return nil, mapTaskErr(err)
	}
	return task, nil
}

func (s *taskService) ListTasks(ctx context.Context, owner int64, filter repository.TaskFilter) (*TaskPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("status", "Status must be one of pending, in-progress, completed")
	}
	if filter.Priority != "" && !filter.Priority.Valid() {
		return nil, invalid("priority", "Priority must be one of low, medium, high")
	}
	filter = filter.Normalized()

	tasks, total, err := s.tasks.List(ctx, owner, filter)
	if err != nil {
		return nil, err
	}

	return &TaskPage{
		Tasks:      tasks,
		Pagination: repository.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

func (s *taskService) ListAllTasks(ctx context.Context, owner int64) ([]domain.Task, error) {
	return s.tasks.ListAll(ctx, owner)
}

// UpdateTask applies a partial update. Validation runs before the write and
// the completion fields are stored by the same statement as the status.
func (s *taskService) UpdateTask(ctx context.Context, owner, id int64, update TaskUpdate) (*domain.Task, error) {
	task, err := s.tasks.Get(ctx, owner, id)
	if err != nil {
		return nil, mapTaskErr(err)
	}

	if update.Title != nil {
		task.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		task.Description = strings.TrimSpace(*update.Description)
	}
	if update.Priority != nil {
		task.Priority = *update.Priority
	}
	switch {
	case update.ClearDueDate:
		task.DueDate = nil
	case update.DueDate != nil:
		task.DueDate = utcPtr(update.DueDate)
	}
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, invalid("status", "Status must be one of pending, in-progress, completed")
		}
		task.SetStatus(*update.Status, s.now())
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	if err := s.tasks.Update(ctx, owner, task); err != nil {
		return nil, mapTaskErr(err)
	}
	return task, nil
}

func (s *taskService) DeleteTask(ctx context.Context, owner, id int64) error {
	return mapTaskErr(s.tasks.Delete(ctx, owner, id))
}

func (s *taskService) Stats(ctx context.Context, owner int64) (*repository.TaskStats, error) {
	stats, err := s.tasks.Stats(ctx, owner, s.now())
	if err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}
	return stats, nil
}

func mapTaskErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTaskNotFound
	}
	return err
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
