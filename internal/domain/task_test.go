package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskDefaults(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	task := NewTask(7, "  Buy milk ", "", "", "", nil, now)

	assert.Equal(t, int64(7), task.UserID)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Equal(t, TaskStatusPending, task.Status)
	assert.Equal(t, TaskPriorityMedium, task.Priority)
	assert.False(t, task.IsCompleted)
	assert.Nil(t, task.CompletedAt)
}

func TestNewTaskCreatedCompleted(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	task := NewTask(1, "done already", "", TaskStatusCompleted, TaskPriorityLow, nil, now)

	assert.True(t, task.IsCompleted)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(now))
}

func TestSetStatusTransitions(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	task := NewTask(1, "write report", "", TaskStatusPending, TaskPriorityHigh, nil, start)

	task.SetStatus(TaskStatusCompleted, start.Add(time.Hour))
	assert.True(t, task.IsCompleted)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(start.Add(time.Hour)))

	// same status again keeps the first stamp
	task.SetStatus(TaskStatusCompleted, start.Add(2*time.Hour))
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(start.Add(time.Hour)))

	task.SetStatus(TaskStatusInProgress, start.Add(3*time.Hour))
	assert.False(t, task.IsCompleted)
	assert.Nil(t, task.CompletedAt)

	task.SetStatus(TaskStatusPending, start.Add(4*time.Hour))
	assert.False(t, task.IsCompleted)
	assert.Nil(t, task.CompletedAt)
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	cases := []struct {
		name   string
		due    *time.Time
		status TaskStatus
		want   bool
	}{
		{"no due date", nil, TaskStatusPending, false},
		{"past and pending", &past, TaskStatusPending, true},
		{"past and in progress", &past, TaskStatusInProgress, true},
		{"past but completed", &past, TaskStatusCompleted, false},
		{"future", &future, TaskStatusPending, false},
		{"exactly now", &now, TaskStatusPending, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := &Task{DueDate: tc.due, Status: tc.status}
			assert.Equal(t, tc.want, task.IsOverdue(now))
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Task {
		return &Task{UserID: 1, Title: "ok", Status: TaskStatusPending, Priority: TaskPriorityLow}
	}

	cases := []struct {
		name   string
		mutate func(*Task)
		field  string
	}{
		{"missing owner", func(tk *Task) { tk.UserID = 0 }, "user"},
		{"blank title", func(tk *Task) { tk.Title = "   " }, "title"},
		{"long title", func(tk *Task) { tk.Title = strings.Repeat("a", MaxTitleLength+1) }, "title"},
		{"long description", func(tk *Task) { tk.Description = strings.Repeat("d", MaxDescriptionLength+1) }, "description"},
		{"bad status", func(tk *Task) { tk.Status = "archived" }, "status"},
		{"bad priority", func(tk *Task) { tk.Priority = "urgent" }, "priority"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			task := valid()
			tc.mutate(task)
			err := task.Validate()
			require.Error(t, err)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
		})
	}

	assert.NoError(t, valid().Validate())
	exact := valid()
	exact.Title = strings.Repeat("é", MaxTitleLength)
	assert.NoError(t, exact.Validate())
}
