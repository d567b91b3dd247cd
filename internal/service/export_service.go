package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/domain"
	"taskboard/internal/storage"
)

// ErrExportDisabled is returned when no bucket is configured.
var ErrExportDisabled = errors.New("task export is not configured")

// ExportService writes owner-scoped task snapshots to object storage.
type ExportService interface {
	Export(ctx context.Context, owner int64) (*Export, error)
	ListExports(ctx context.Context, owner int64) ([]storage.ObjectInfo, error)
	DeleteExports(ctx context.Context, owner int64) (int, error)
}

// Export describes a written snapshot.
type Export struct {
	Location   string
	Key        string
	Count      int
	ExportedAt time.Time
}

type snapshot struct {
	UserID     int64          `json:"userId"`
	ExportedAt time.Time      `json:"exportedAt"`
	Count      int            `json:"count"`
	Tasks      []snapshotTask `json:"tasks"`
}

type snapshotTask struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type exportService struct {
	tasks     TaskService
	store     storage.Service
	bucket    string
	keyPrefix string
	now       func() time.Time
}

func NewExportService(tasks TaskService, store storage.Service, bucket, keyPrefix string) ExportService {
	return &exportService{
		tasks:     tasks,
		store:     store,
		bucket:    strings.TrimSpace(bucket),
		keyPrefix: strings.Trim(keyPrefix, "/"),
		now:       time.Now,
	}
}

func (s *exportService) Export(ctx context.Context, owner int64) (*Export, error) {
	if s.store == nil || s.bucket == "" {
		return nil, ErrExportDisabled
	}

	tasks, err := s.tasks.ListAllTasks(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}

	now := s.now().UTC()
	body, err := json.MarshalIndent(buildSnapshot(owner, now, tasks), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	key := path.Join(s.ownerPrefix(owner), fmt.Sprintf("tasks-%s-%s.json", now.Format("20060102T150405Z"), uuid.NewString()))
	location, err := s.store.PutObject(ctx, s.bucket, key, body, "application/json")
	if err != nil {
		return nil, err
	}

	return &Export{
		Location:   location,
		Key:        key,
		Count:      len(tasks),
		ExportedAt: now,
	}, nil
}

func (s *exportService) ListExports(ctx context.Context, owner int64) ([]storage.ObjectInfo, error) {
	if s.store == nil || s.bucket == "" {
		return nil, ErrExportDisabled
	}
	return s.store.ListObjects(ctx, s.bucket, s.ownerPrefix(owner)+"/")
}

func (s *exportService) DeleteExports(ctx context.Context, owner int64) (int, error) {
	if s.store == nil || s.bucket == "" {
		return 0, ErrExportDisabled
	}
	return s.store.DeletePrefix(ctx, s.bucket, s.ownerPrefix(owner)+"/")
}

func (s *exportService) ownerPrefix(owner int64) string {
	return path.Join(s.keyPrefix, fmt.Sprintf("user-%d", owner))
}

func buildSnapshot(owner int64, now time.Time, tasks []domain.Task) snapshot {
	out := snapshot{
		UserID:     owner,
		ExportedAt: now,
		Count:      len(tasks),
		Tasks:      make([]snapshotTask, len(tasks)),
	}
	for i, task := range tasks {
		out.Tasks[i] = snapshotTask{
			ID:          task.ID,
			Title:       task.Title,
			Description: task.Description,
			Status:      string(task.Status),
			Priority:    string(task.Priority),
			DueDate:     task.DueDate,
			IsCompleted: task.IsCompleted,
			CompletedAt: task.CompletedAt,
			CreatedAt:   task.CreatedAt,
			UpdatedAt:   task.UpdatedAt,
		}
	}
	return out
}
