package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

// Valid reports whether s is one of the known task statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Valid reports whether p is one of the known task priorities.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	Status      TaskStatus
	Priority    TaskPriority
	DueDate     *time.Time
	IsCompleted bool
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTask builds a task for owner with defaults applied. The completion
// fields follow the initial status.
func NewTask(owner int64, title, description string, status TaskStatus, priority TaskPriority, due *time.Time, now time.Time) *Task {
	if status == "" {
		status = TaskStatusPending
	}
	if priority == "" {
		priority = TaskPriorityMedium
	}
	task := &Task{
		UserID:      owner,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Priority:    priority,
		DueDate:     due,
		Status:      status,
	}
	if status == TaskStatusCompleted {
		task.markCompleted(now)
	}
	return task
}

// SetStatus moves the task to status and keeps IsCompleted/CompletedAt in
// step with it. Setting the current status again is a no-op.
func (t *Task) SetStatus(status TaskStatus, now time.Time) {
	if t.Status == status {
		return
	}
	t.Status = status
	if status == TaskStatusCompleted {
		t.markCompleted(now)
		return
	}
	t.IsCompleted = false
	t.CompletedAt = nil
}

func (t *Task) markCompleted(now time.Time) {
	completedAt := now.UTC()
	t.IsCompleted = true
	t.CompletedAt = &completedAt
}

// IsOverdue reports whether the task is past due and not completed.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != TaskStatusCompleted
}

// ValidationError describes a field that failed a constraint. Message is
// safe to show to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks field constraints. It returns the first violation found.
func (t *Task) Validate() error {
	if t.UserID <= 0 {
		return invalid("user", "Task owner is required")
	}
	if strings.TrimSpace(t.Title) == "" {
		return invalid("title", "Task title is required")
	}
	if utf8.RuneCountInString(t.Title) > MaxTitleLength {
		return invalid("title", "Title cannot exceed %d characters", MaxTitleLength)
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return invalid("description", "Description cannot exceed %d characters", MaxDescriptionLength)
	}
	if !t.Status.Valid() {
		return invalid("status", "Status must be one of pending, in-progress, completed")
	}
	if !t.Priority.Valid() {
		return invalid("priority", "Priority must be one of low, medium, high")
	}
	return nil
}
