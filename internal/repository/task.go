package repository

import (
	"context"
	"time"

	"taskboard/internal/domain"
)

// TaskRepository exposes persistence operations for Task aggregates. Every
// method takes the owner id explicitly; rows of other owners are invisible.
type TaskRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, task *domain.Task) (int64, error)
	Update(ctx context.Context, owner int64, task *domain.Task) error
	Delete(ctx context.Context, owner int64, id int64) error
	Get(ctx context.Context, owner int64, id int64) (*domain.Task, error)
	List(ctx context.Context, owner int64, filter TaskFilter) ([]domain.Task, int, error)
	ListAll(ctx context.Context, owner int64) ([]domain.Task, error)
	Stats(ctx context.Context, owner int64, now time.Time) (*TaskStats, error)
}

// TaskStats aggregates one owner's tasks.
type TaskStats struct {
	Total      int
	Completed  int
	Overdue    int
	ByStatus   map[domain.TaskStatus]int
	ByPriority map[domain.TaskPriority]int
}
