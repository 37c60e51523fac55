package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/taskmate/core/internal/domain/entities"
	"github.com/taskmate/core/internal/ports"
)

const taskColumns = `id, owner_id, title, description, due_date, priority, status, category, tags,
	is_completed, completed_at, reminder_sent, created_at, updated_at`

// priorityRank orders priorities high > medium > low
const priorityRank = `CASE priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END`

// TaskRepository implements ports.TaskStore on PostgreSQL
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Find lists tasks matching filter. A zero limit means no limit.
func (r *TaskRepository) Find(ctx context.Context, filter ports.TaskFilter, keys []ports.SortKey, skip, limit int) ([]*entities.Task, error) {
	whereClause, args, err := buildTaskWhere(filter)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM tasks %s", taskColumns, whereClause)
	if order := orderClause(keys); order != "" {
		query += " ORDER BY " + order
	}
	argIndex := len(args) + 1
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
	}
	if skip > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, skip)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, entities.NewStoreError("list tasks", err)
	}
	defer rows.Close()

	tasks := []*entities.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, entities.NewStoreError("scan task", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, entities.NewStoreError("iterate tasks", err)
	}

	return tasks, nil
}

// Count counts tasks matching filter
func (r *TaskRepository) Count(ctx context.Context, filter ports.TaskFilter) (int64, error) {
	whereClause, args, err := buildTaskWhere(filter)
	if err != nil {
		return 0, err
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM tasks "+whereClause, args...); err != nil {
		return 0, entities.NewStoreError("count tasks", err)
	}
	return total, nil
}

// CountBy counts tasks matching filter grouped by field
func (r *TaskRepository) CountBy(ctx context.Context, field ports.GroupField, filter ports.TaskFilter) (map[string]int64, error) {
	column, ok := groupColumns[field]
	if !ok {
		return nil, entities.NewStoreError("count tasks", fmt.Errorf("unsupported group field %q", field))
	}

	whereClause, args, err := buildTaskWhere(filter)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %[1]s, COUNT(*) FROM tasks %[2]s GROUP BY %[1]s", column, whereClause)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, entities.NewStoreError("group tasks", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			key string
			n   int64
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, entities.NewStoreError("scan group", err)
		}
		counts[key] = n
	}

	if err := rows.Err(); err != nil {
		return nil, entities.NewStoreError("iterate groups", err)
	}

	return counts, nil
}

// FindOne retrieves a task by ID within the owner's tasks
func (r *TaskRepository) FindOne(ctx context.Context, ownerID, id string) (*entities.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, entities.ErrTaskNotFound
	}

	query := fmt.Sprintf("SELECT %s FROM tasks WHERE id = $1 AND owner_id = $2", taskColumns)
	task, err := scanTask(r.db.QueryRowxContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, entities.NewStoreError("get task", err)
	}

	return task, nil
}

// Insert stores a new task and assigns its ID and creation time
func (r *TaskRepository) Insert(ctx context.Context, task *entities.Task) (*entities.Task, error) {
	if task.OwnerID == "" {
		return nil, entities.NewStoreError("insert task", entities.ErrMissingOwner)
	}

	query := `
		INSERT INTO tasks (id, owner_id, title, description, due_date, priority, status, category, tags,
			is_completed, completed_at, reminder_sent, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, COALESCE($13, CURRENT_TIMESTAMP))
		RETURNING created_at, updated_at
	`

	created := *task
	created.ID = uuid.NewString()
	if created.Tags == nil {
		created.Tags = []string{}
	}

	err := r.db.QueryRowContext(ctx, query,
		created.ID,
		created.OwnerID,
		created.Title,
		created.Description,
		created.DueDate,
		created.Priority,
		created.Status,
		created.Category,
		pq.Array(created.Tags),
		created.IsCompleted,
		created.CompletedAt,
		created.ReminderSent,
		nullTime(created.UpdatedAt),
	).Scan(&created.CreatedAt, &created.UpdatedAt)

	if err != nil {
		return nil, entities.NewStoreError("insert task", err)
	}

	return &created, nil
}

// Update replaces the stored copy of a task owned by task.OwnerID
func (r *TaskRepository) Update(ctx context.Context, task *entities.Task) (*entities.Task, error) {
	if _, err := uuid.Parse(task.ID); err != nil {
		return nil, entities.ErrTaskNotFound
	}

	query := `
		UPDATE tasks
		SET title = $3, description = $4, due_date = $5, priority = $6, status = $7, category = $8,
			tags = $9, is_completed = $10, completed_at = $11, reminder_sent = $12,
			updated_at = COALESCE($13, CURRENT_TIMESTAMP)
		WHERE id = $1 AND owner_id = $2
		RETURNING created_at, updated_at
	`

	updated := *task
	if updated.Tags == nil {
		updated.Tags = []string{}
	}

	err := r.db.QueryRowContext(ctx, query,
		updated.ID,
		updated.OwnerID,
		updated.Title,
		updated.Description,
		updated.DueDate,
		updated.Priority,
		updated.Status,
		updated.Category,
		pq.Array(updated.Tags),
		updated.IsCompleted,
		updated.CompletedAt,
		updated.ReminderSent,
		nullTime(updated.UpdatedAt),
	).Scan(&updated.CreatedAt, &updated.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, entities.NewStoreError("update task", err)
	}

	return &updated, nil
}

// Delete removes a task and returns the deleted row
func (r *TaskRepository) Delete(ctx context.Context, ownerID, id string) (*entities.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, entities.ErrTaskNotFound
	}

	query := fmt.Sprintf("DELETE FROM tasks WHERE id = $1 AND owner_id = $2 RETURNING %s", taskColumns)
	task, err := scanTask(r.db.QueryRowxContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, entities.NewStoreError("delete task", err)
	}

	return task, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*entities.Task, error) {
	var task entities.Task
	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&task.Priority,
		&task.Status,
		&task.Category,
		pq.Array(&task.Tags),
		&task.IsCompleted,
		&task.CompletedAt,
		&task.ReminderSent,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}
	return &task, nil
}

var groupColumns = map[ports.GroupField]string{
	ports.GroupByPriority: "priority",
	ports.GroupByCategory: "category",
	ports.GroupByStatus:   "status",
}

// buildTaskWhere renders filter as a WHERE clause with positional arguments.
// The owner condition is always present.
func buildTaskWhere(f ports.TaskFilter) (string, []interface{}, error) {
	if f.OwnerID == "" {
		return "", nil, entities.NewStoreError("query tasks", entities.ErrMissingOwner)
	}

	conditions := []string{"owner_id = $1"}
	args := []interface{}{f.OwnerID}
	argIndex := 2

	add := func(format string, arg interface{}) {
		conditions = append(conditions, fmt.Sprintf(format, argIndex))
		args = append(args, arg)
		argIndex++
	}

	if f.Status != nil {
		add("status = $%d", string(*f.Status))
	}
	if f.ExcludeStatus != nil {
		add("status <> $%d", string(*f.ExcludeStatus))
	}
	if f.Priority != nil {
		add("priority = $%d", string(*f.Priority))
	}
	if f.Category != nil && *f.Category != "" {
		add("category ILIKE $%d", "%"+escapeLike(*f.Category)+"%")
	}
	if f.IsCompleted != nil {
		add("is_completed = $%d", *f.IsCompleted)
	}
	if f.DueAfter != nil {
		add("due_date >= $%d", *f.DueAfter)
	}
	if f.DueBefore != nil {
		add("due_date <= $%d", *f.DueBefore)
	}
	if f.OverdueAt != nil {
		add("due_date < $%d", *f.OverdueAt)
	}
	if f.CompletedSince != nil {
		add("completed_at >= $%d", *f.CompletedSince)
	}
	if len(f.Tags) > 0 {
		add("tags && $%d", pq.Array(f.Tags))
	}

	return "WHERE " + strings.Join(conditions, " AND "), args, nil
}

// orderClause renders keys as an ORDER BY list. Missing dates sort lowest in
// either direction. A column is used once; later keys on it are dropped.
func orderClause(keys []ports.SortKey) string {
	parts := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		column := sortColumn(k.Field)
		if seen[column] {
			continue
		}
		seen[column] = true

		if k.Order == ports.SortAsc {
			parts = append(parts, column+" ASC NULLS FIRST")
		} else {
			parts = append(parts, column+" DESC NULLS LAST")
		}
	}
	return strings.Join(parts, ", ")
}

func sortColumn(field ports.SortField) string {
	switch field {
	case ports.SortByDueDate:
		return "due_date"
	case ports.SortByPriority:
		return priorityRank
	case ports.SortByTitle:
		return "title"
	case ports.SortByCompletedAt:
		return "completed_at"
	default:
		return "created_at"
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
