package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
)

// TasksState is a snapshot of the task list as last seen by the client.
type TasksState struct {
	Tasks      []Task
	Current    *Task
	Stats      *Stats
	Filters    Filters
	Pagination Pagination
	Loading    bool
}

// Tasks mirrors the caller's tasks. Mutations patch the local list without a
// refetch and then refresh the statistics.
type Tasks struct {
	api    *API
	notify Notifier

	mu    sync.RWMutex
	state TasksState
}

func NewTasks(api *API, notify Notifier) *Tasks {
	if notify == nil {
		notify = discardNotifier{}
	}
	return &Tasks{
		api:    api,
		notify: notify,
		state: TasksState{
			Filters:    Filters{SortBy: "createdAt", SortOrder: "desc", Limit: 10},
			Pagination: Pagination{CurrentPage: 1},
		},
	}
}

// State returns a copy of the current list state.
func (t *Tasks) State() TasksState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state := t.state
	state.Tasks = append([]Task(nil), t.state.Tasks...)
	if state.Current != nil {
		cur := *state.Current
		state.Current = &cur
	}
	return state
}

// SetFilters replaces the filters and rewinds to the first page. The next
// Fetch uses them.
func (t *Tasks) SetFilters(f Filters) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f.Limit <= 0 {
		f.Limit = t.state.Filters.Limit
	}
	t.state.Filters = f
	t.state.Pagination.CurrentPage = 1
}

func (t *Tasks) ClearFilters() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.Filters = Filters{SortBy: "createdAt", SortOrder: "desc", Limit: t.state.Filters.Limit}
	t.state.Pagination.CurrentPage = 1
}

// Fetch loads one page using the stored filters. page <= 0 reloads the
// current page.
func (t *Tasks) Fetch(ctx context.Context, page int) error {
	t.mu.Lock()
	if page <= 0 {
		page = t.state.Pagination.CurrentPage
	}
	query := filterQuery(t.state.Filters, page)
	t.state.Loading = true
	t.mu.Unlock()

	var tasks []Task
	pagination, err := t.api.do(ctx, http.MethodGet, "/api/tasks", query, nil, &tasks)

	t.mu.Lock()
	t.state.Loading = false
	if err == nil {
		t.state.Tasks = tasks
		if pagination != nil {
			t.state.Pagination = *pagination
		}
	}
	t.mu.Unlock()

	if err != nil {
		t.notify.Notify(LevelError, Message(err, "Failed to fetch tasks"))
		return err
	}
	return nil
}

func (t *Tasks) Get(ctx context.Context, id int64) (*Task, error) {
	var task Task
	if _, err := t.api.do(ctx, http.MethodGet, taskPath(id), nil, nil, &task); err != nil {
		t.notify.Notify(LevelError, Message(err, "Failed to fetch task"))
		return nil, err
	}

	t.mu.Lock()
	cur := task
	t.state.Current = &cur
	t.mu.Unlock()
	return &task, nil
}

func (t *Tasks) Create(ctx context.Context, input TaskInput) (*Task, error) {
	var task Task
	if _, err := t.api.do(ctx, http.MethodPost, "/api/tasks", nil, input, &task); err != nil {
		t.notify.Notify(LevelError, Message(err, "Failed to create task"))
		return nil, err
	}

	t.mu.Lock()
	t.state.Tasks = append([]Task{task}, t.state.Tasks...)
	t.state.Pagination.TotalTasks++
	t.mu.Unlock()

	t.notify.Notify(LevelSuccess, "Task created successfully!")
	t.refreshStats(ctx)
	return &task, nil
}

func (t *Tasks) Update(ctx context.Context, id int64, update TaskUpdate) (*Task, error) {
	var task Task
	if _, err := t.api.do(ctx, http.MethodPut, taskPath(id), nil, update, &task); err != nil {
		t.notify.Notify(LevelError, Message(err, "Failed to update task"))
		return nil, err
	}

	t.mu.Lock()
	for i := range t.state.Tasks {
		if t.state.Tasks[i].ID == id {
			t.state.Tasks[i] = task
		}
	}
	if t.state.Current != nil && t.state.Current.ID == id {
		cur := task
		t.state.Current = &cur
	}
	t.mu.Unlock()

	t.notify.Notify(LevelSuccess, "Task updated successfully!")
	t.refreshStats(ctx)
	return &task, nil
}

func (t *Tasks) Delete(ctx context.Context, id int64) error {
	if _, err := t.api.do(ctx, http.MethodDelete, taskPath(id), nil, nil, nil); err != nil {
		t.notify.Notify(LevelError, Message(err, "Failed to delete task"))
		return err
	}

	t.mu.Lock()
	kept := t.state.Tasks[:0]
	for _, task := range t.state.Tasks {
		if task.ID != id {
			kept = append(kept, task)
		}
	}
	t.state.Tasks = kept
	if t.state.Pagination.TotalTasks > 0 {
		t.state.Pagination.TotalTasks--
	}
	if t.state.Current != nil && t.state.Current.ID == id {
		t.state.Current = nil
	}
	t.mu.Unlock()

	t.notify.Notify(LevelSuccess, "Task deleted successfully!")
	t.refreshStats(ctx)
	return nil
}

func (t *Tasks) FetchStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if _, err := t.api.do(ctx, http.MethodGet, "/api/tasks/stats", nil, nil, &stats); err != nil {
		return nil, err
	}

	t.mu.Lock()
	cur := stats
	t.state.Stats = &cur
	t.mu.Unlock()
	return &stats, nil
}

// refreshStats runs after a successful mutation. Its failure does not undo
// the mutation.
func (t *Tasks) refreshStats(ctx context.Context) {
	_, _ = t.FetchStats(ctx)
}

func taskPath(id int64) string {
	return fmt.Sprintf("/api/tasks/%d", id)
}

func filterQuery(f Filters, page int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	for key, value := range map[string]string{
		"status":    f.Status,
		"priority":  f.Priority,
		"search":    f.Search,
		"sortBy":    f.SortBy,
		"sortOrder": f.SortOrder,
	} {
		if value != "" {
			q.Set(key, value)
		}
	}
	return q
}
