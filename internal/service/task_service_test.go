package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

func statusPtr(s domain.TaskStatus) *domain.TaskStatus { return &s }

func TestCreateTaskOwnedByCaller(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com")

	task, err := env.tasks.CreateTask(ctx, alice.ID, TaskInput{Title: "Buy milk", Priority: domain.TaskPriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, task.UserID)
	assert.Equal(t, domain.TaskStatusPending, task.Status)
	assert.Equal(t, domain.TaskPriorityHigh, task.Priority)
	assert.Positive(t, task.ID)
}

func TestCreateTaskValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com")

	_, err := env.tasks.CreateTask(ctx, alice.ID, TaskInput{Title: "   "})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "title", verr.Field)

	_, err = env.tasks.CreateTask(ctx, alice.ID, TaskInput{Title: "x", Status: "archived"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "status", verr.Field)

	page, err := env.tasks.ListTasks(ctx, alice.ID, repository.TaskFilter{})
	require.NoError(t, err)
	assert.Zero(t, page.Pagination.TotalTasks, "rejected input must not be written")
}

func TestUpdateTaskCompletionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com")

	task, err := env.tasks.CreateTask(ctx, alice.ID, TaskInput{Title: "ship it"})
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	completedAt := env.clock.now
	task, err = env.tasks.UpdateTask(ctx, alice.ID, task.ID, TaskUpdate{Status: statusPtr(domain.TaskStatusCompleted)})
	require.NoError(t, err)
	assert.True(t, task.IsCompleted)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(completedAt))

	env.clock.Advance(time.Hour)
	task, err = env.tasks.UpdateTask(ctx, alice.ID, task.ID, TaskUpdate{Status: statusPtr(domain.TaskStatusCompleted)})
	require.NoError(t, err)
	require.NotNil(t, task.CompletedAt)
	assert.True(t, task.CompletedAt.Equal(completedAt), "re-completing must keep the first stamp")

	stored, err := env.tasks.GetTask(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CompletedAt)
	assert.True(t, stored.CompletedAt.Equal(completedAt))

	task, err = env.tasks.UpdateTask(ctx, alice.ID, task.ID, TaskUpdate{Status: statusPtr(domain.TaskStatusInProgress)})
	require.NoError(t, err)
	assert.False(t, task.IsCompleted)
	assert.Nil(t, task.CompletedAt)

	stored, err = env.tasks.GetTask(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsCompleted)
	assert.Nil(t, stored.CompletedAt)
}

func TestUpdateTaskPartialFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com")
	due := env.clock.now.Add(24 * time.Hour)

	task, err := env.tasks.CreateTask(ctx, alice.ID, TaskInput{Title: "draft", Description: "keep me", DueDate: &due})
	require.NoError(t, err)

	title := "final"
	task, err = env.tasks.UpdateTask(ctx, alice.ID, task.ID, TaskUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "final", task.Title)
	assert.Equal(t, "keep me", task.Description)
	require.NotNil(t, task.DueDate)

	task, err = env.tasks.UpdateTask(ctx, alice.ID, task.ID, TaskUpdate{ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, task.DueDate)

	empty := ""
	_, err = env.tasks.UpdateTask(ctx, alice.ID, task.ID, TaskUpdate{Title: &empty})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	stored, err := env.tasks.GetTask(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", stored.Title, "failed validation must not write")
}

func TestTaskIsolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com")
	bob := env.register(t, "b@x.com")

	task, err := env.tasks.CreateTask(ctx, alice.ID, TaskInput{Title: "private"})
	require.NoError(t, err)

	_, err = env.tasks.GetTask(ctx, bob.ID, task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	title := "mine now"
	_, err = env.tasks.UpdateTask(ctx, bob.ID, task.ID, TaskUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	assert.ErrorIs(t, env.tasks.DeleteTask(ctx, bob.ID, task.ID), ErrTaskNotFound)

	still, err := env.tasks.GetTask(ctx, alice.ID, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "private", still.Title)

	require.NoError(t, env.tasks.DeleteTask(ctx, alice.ID, task.ID))
	assert.ErrorIs(t, env.tasks.DeleteTask(ctx, alice.ID, task.ID), ErrTaskNotFound)
}

func TestListTasksPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com")

	for i := 0; i < 12; i++ {
		_, err := env.tasks.CreateTask(ctx, alice.ID, TaskInput{Title: fmt.Sprintf("task %d", i)})
		require.NoError(t, err)
	}

	for _, limit := range []int{1, 5, 7, 12, 20} {
		page, err := env.tasks.ListTasks(ctx, alice.ID, repository.TaskFilter{Limit: limit})
		require.NoError(t, err)
		assert.Equal(t, (12+limit-1)/limit, page.Pagination.TotalPages, "limit %d", limit)

		beyond, err := env.tasks.ListTasks(ctx, alice.ID, repository.TaskFilter{Limit: limit, Page: page.Pagination.TotalPages + 1})
		require.NoError(t, err)
		assert.Empty(t, beyond.Tasks)
		assert.False(t, beyond.Pagination.HasNext)
	}

	page, err := env.tasks.ListTasks(ctx, alice.ID, repository.TaskFilter{Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, page.Tasks, 5)
	assert.Equal(t, 2, page.Pagination.CurrentPage)
	assert.True(t, page.Pagination.HasNext)
	assert.True(t, page.Pagination.HasPrev)

	empty, err := env.tasks.ListTasks(ctx, env.register(t, "c@x.com").ID, repository.TaskFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Pagination.TotalPages)
	assert.Empty(t, empty.Tasks)
}

func TestListTasksRejectsUnknownEnums(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com")

	var verr *ValidationError
	_, err := env.tasks.ListTasks(ctx, alice.ID, repository.TaskFilter{Status: "done"})
	assert.True(t, errors.As(err, &verr))
	_, err = env.tasks.ListTasks(ctx, alice.ID, repository.TaskFilter{Priority: "urgent"})
	assert.True(t, errors.As(err, &verr))
}

func TestStatsCountsOverdue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.register(t, "a@x.com")

	past := env.clock.now.Add(-time.Hour)
	_, err := env.tasks.CreateTask(ctx, alice.ID, TaskInput{Title: "late", DueDate: &past})
	require.NoError(t, err)
	_, err = env.tasks.CreateTask(ctx, alice.ID, TaskInput{Title: "late but done", DueDate: &past, Status: domain.TaskStatusCompleted})
	require.NoError(t, err)
	_, err = env.tasks.CreateTask(ctx, alice.ID, TaskInput{Title: "whenever", Priority: domain.TaskPriorityLow})
	require.NoError(t, err)

	stats, err := env.tasks.Stats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Overdue)
	assert.Equal(t, 2, stats.ByStatus[domain.TaskStatusPending])
	assert.Equal(t, 2, stats.ByPriority[domain.TaskPriorityMedium])

	sum := 0
	for _, n := range stats.ByStatus {
		sum += n
	}
	assert.Equal(t, stats.Total, sum)
	assert.LessOrEqual(t, stats.Overdue, stats.Total-stats.Completed)
}
