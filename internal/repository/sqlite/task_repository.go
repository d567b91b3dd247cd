package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

const createTasksTable = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	title_folded TEXT NOT NULL DEFAULT '',
	description_folded TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	priority TEXT NOT NULL DEFAULT 'medium',
	due_date DATETIME NULL,
	is_completed INTEGER NOT NULL DEFAULT 0,
	completed_at DATETIME NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_tasks_user_status ON tasks(user_id, status);
CREATE INDEX IF NOT EXISTS idx_tasks_user_created ON tasks(user_id, created_at DESC);
`

const selectTaskColumns = `
SELECT id, user_id, title, description, status, priority, due_date, is_completed, completed_at, created_at, updated_at
FROM tasks`

// sortExpressions maps allowed sort fields to SQL. Priority and status sort by rank.
var sortExpressions = map[repository.SortField]string{
	repository.SortByCreatedAt: "created_at",
	repository.SortByDueDate:   "due_date",
	repository.SortByTitle:     "title COLLATE NOCASE",
	repository.SortByPriority:  "CASE priority WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 ELSE 0 END",
	repository.SortByStatus:    "CASE status WHEN 'pending' THEN 1 WHEN 'in-progress' THEN 2 WHEN 'completed' THEN 3 ELSE 0 END",
}

type TaskRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewTaskRepository(db *sql.DB) repository.TaskRepository {
	return &TaskRepository{db: db, now: time.Now}
}

func (r *TaskRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTasksTable); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (int64, error) {
	now := r.now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
INSERT INTO tasks (user_id, title, description, title_folded, description_folded, status, priority, due_date, is_completed, completed_at, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.UserID,
		task.Title,
		task.Description,
		foldCase(task.Title),
		foldCase(task.Description),
		string(task.Status),
		string(task.Priority),
		nullTime(task.DueDate),
		task.IsCompleted,
		nullTime(task.CompletedAt),
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}
	task.ID = id
	return id, nil
}

// Update writes every mutable column, status and completion fields in the
// same statement. user_id is never written.
func (r *TaskRepository) Update(ctx context.Context, owner int64, task *domain.Task) error {
	task.UpdatedAt = r.now().UTC()
	res, err := r.db.ExecContext(ctx, `
UPDATE tasks
SET title=?, description=?, title_folded=?, description_folded=?, status=?, priority=?, due_date=?, is_completed=?, completed_at=?, updated_at=?
WHERE id=? AND user_id=?`,
		task.Title,
		task.Description,
		foldCase(task.Title),
		foldCase(task.Description),
		string(task.Status),
		string(task.Priority),
		nullTime(task.DueDate),
		task.IsCompleted,
		nullTime(task.CompletedAt),
		task.UpdatedAt,
		task.ID,
		owner,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("task update rows affected: %w", err)
	}
	if aff == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, owner int64, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id=? AND user_id=?`, id, owner)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("task delete rows affected: %w", err)
	}
	if aff == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *TaskRepository) Get(ctx context.Context, owner int64, id int64) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, selectTaskColumns+`
WHERE id=? AND user_id=?`,
		id,
		owner,
	)
	return scanTask(row)
}

func (r *TaskRepository) List(ctx context.Context, owner int64, filter repository.TaskFilter) ([]domain.Task, int, error) {
	filter = filter.Normalized()
	where, args := buildTaskWhere(owner, filter)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	tasks := []domain.Task{}
	if filter.Offset() >= total {
		return tasks, total, nil
	}

	query := selectTaskColumns + `
WHERE ` + where + `
ORDER BY ` + buildTaskOrder(filter) + `
LIMIT ? OFFSET ?`
	rows, err := tx.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, total, nil
}

func (r *TaskRepository) ListAll(ctx context.Context, owner int64) ([]domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, selectTaskColumns+`
WHERE user_id=?
ORDER BY id ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}

	return tasks, rows.Err()
}

// Stats aggregates the owner's tasks with a single grouped query so every
// figure comes from the same snapshot.
func (r *TaskRepository) Stats(ctx context.Context, owner int64, now time.Time) (*repository.TaskStats, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT status, priority, COUNT(*),
	SUM(CASE WHEN due_date IS NOT NULL AND due_date < ? AND status <> ? THEN 1 ELSE 0 END)
FROM tasks
WHERE user_id=?
GROUP BY status, priority`,
		now.UTC(),
		string(domain.TaskStatusCompleted),
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("query task stats: %w", err)
	}
	defer rows.Close()

	stats := &repository.TaskStats{
		ByStatus:   map[domain.TaskStatus]int{},
		ByPriority: map[domain.TaskPriority]int{},
	}
	for rows.Next() {
		var (
			status   string
			priority string
			count    int
			overdue  int
		)
		if err := rows.Scan(&status, &priority, &count, &overdue); err != nil {
			return nil, fmt.Errorf("scan task stats: %w", err)
		}
		stats.Total += count
		stats.Overdue += overdue
		stats.ByStatus[domain.TaskStatus(status)] += count
		stats.ByPriority[domain.TaskPriority(priority)] += count
		if domain.TaskStatus(status) == domain.TaskStatusCompleted {
			stats.Completed += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task stats: %w", err)
	}

	return stats, nil
}

// buildTaskWhere always starts with the owner predicate.
func buildTaskWhere(owner int64, filter repository.TaskFilter) (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{owner}

	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Priority != "" {
		clauses = append(clauses, "priority = ?")
		args = append(args, string(filter.Priority))
	}
	if filter.Search != "" {
		// sqlite LIKE folds ASCII only, so match against the folded copies
		pattern := "%" + escapeLike(foldCase(filter.Search)) + "%"
		clauses = append(clauses, `(title_folded LIKE ? ESCAPE '\' OR description_folded LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	return strings.Join(clauses, " AND "), args
}

func buildTaskOrder(filter repository.TaskFilter) string {
	expr, ok := sortExpressions[filter.SortBy]
	if !ok {
		expr = sortExpressions[repository.SortByCreatedAt]
	}
	dir := "DESC"
	if filter.SortOrder == repository.SortAsc {
		dir = "ASC"
	}
	if filter.SortBy == repository.SortByDueDate {
		// undated tasks go last in both directions
		return fmt.Sprintf("due_date IS NULL, %s %s, id %s", expr, dir, dir)
	}
	return fmt.Sprintf("%s %s, id %s", expr, dir, dir)
}

func foldCase(s string) string {
	return strings.ToLower(s)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*domain.Task, error) {
	var (
		task        domain.Task
		status      string
		priority    string
		dueDate     sql.NullTime
		completedAt sql.NullTime
	)

	if err := scanner.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&status,
		&priority,
		&dueDate,
		&task.IsCompleted,
		&completedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}

	task.Status = domain.TaskStatus(status)
	task.Priority = domain.TaskPriority(priority)
	task.DueDate = timePtr(dueDate)
	task.CompletedAt = timePtr(completedAt)
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()

	return &task, nil
}
