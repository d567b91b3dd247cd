package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
	"taskboard/internal/repository/sqlite"
)

type testEnv struct {
	userRepo repository.UserRepository
	users    *userService
	tasks    *taskService
	clock    *testClock
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	userRepo := sqlite.NewUserRepository(db)
	taskRepo := sqlite.NewTaskRepository(db)
	require.NoError(t, userRepo.Init(ctx))
	require.NoError(t, taskRepo.Init(ctx))

	clock := &testClock{now: time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)}
	users := NewUserService(userRepo).(*userService)
	users.now = clock.Now
	tasks := NewTaskService(taskRepo).(*taskService)
	tasks.now = clock.Now

	return &testEnv{userRepo: userRepo, users: users, tasks: tasks, clock: clock}
}

func (e *testEnv) register(t *testing.T, email string) *domain.User {
	t.Helper()
	user, err := e.users.Register(context.Background(), "Test User", email, "Secret1!")
	require.NoError(t, err)
	return user
}
