package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taskmate/core/internal/domain/entities"
	"github.com/taskmate/core/internal/infrastructure/logger"
	"github.com/taskmate/core/internal/ports"
)

// TaskService handles task-related operations. Every operation is scoped to
// the owner passed in by the caller.
type TaskService struct {
	store   ports.TaskStore
	metrics ports.MetricsRecorder
	logger  *logger.Logger
	now     func() time.Time
}

// NewTaskService creates a new task service. metrics may be nil.
func NewTaskService(store ports.TaskStore, metrics ports.MetricsRecorder, logger *logger.Logger) *TaskService {
	return &TaskService{
		store:   store,
		metrics: metricsOrNop(metrics),
		logger:  logger.WithComponent("task_service"),
		now:     time.Now,
	}
}

// WithClock replaces the time source
func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

// CreateTask creates a new task
func (s *TaskService) CreateTask(ctx context.Context, ownerID string, req ports.CreateTaskRequest) (*entities.Task, error) {
	task := entities.Task{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		Category:    req.Category,
		Tags:        req.Tags,
		IsCompleted: req.IsCompleted,
	}

	if req.DueDate != nil && strings.TrimSpace(*req.DueDate) != "" {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		task.DueDate = &due
	}

	task.ApplyDefaults()
	task = entities.Synchronize(entities.Task{}, task, s.now())
	if err := task.Validate(); err != nil {
		return nil, err
	}

	created, err := s.store.Insert(ctx, &task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.metrics.TaskCreated()
	if created.IsCompleted {
		s.metrics.TaskCompleted()
	}
	s.logger.WithUserID(ownerID).Infow("Task created", "task_id", created.ID)

	return created, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, ownerID, id string) (*entities.Task, error) {
	task, err := s.store.FindOne(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// UpdateTask applies a partial update and re-synchronizes completion state
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, id string, req ports.UpdateTaskRequest) (*entities.Task, error) {
	existing, err := s.store.FindOne(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	next := *existing
	if req.Title != nil {
		next.Title = *req.Title
	}
	if req.Description != nil {
		next.Description = req.Description
	}
	if req.DueDate != nil {
		if strings.TrimSpace(*req.DueDate) == "" {
			next.DueDate = nil
		} else {
			due, err := parseDueDate(*req.DueDate)
			if err != nil {
				return nil, err
			}
			next.DueDate = &due
		}
	}
	if req.Priority != nil {
		next.Priority = *req.Priority
	}
	if req.Status != nil {
		next.Status = *req.Status
	}
	if req.Category != nil {
		next.Category = *req.Category
	}
	if req.Tags != nil {
		next.Tags = *req.Tags
	}
	if req.IsCompleted != nil {
		next.IsCompleted = *req.IsCompleted
	}

	next.ApplyDefaults()
	next = entities.Synchronize(*existing, next, s.now())
	if err := next.Validate(); err != nil {
		return nil, err
	}

	return s.save(ctx, existing, &next, "update_task")
}

// DeleteTask removes a task permanently
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, id string) error {
	if _, err := s.store.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.WithUserID(ownerID).Infow("Task deleted", "task_id", id)
	return nil
}

// MarkCompleted completes a task
func (s *TaskService) MarkCompleted(ctx context.Context, ownerID, id string) (*entities.Task, error) {
	return s.transition(ctx, ownerID, id, "complete_task", entities.MarkCompleted)
}

// MarkIncomplete reopens a task
func (s *TaskService) MarkIncomplete(ctx context.Context, ownerID, id string) (*entities.Task, error) {
	return s.transition(ctx, ownerID, id, "reopen_task", entities.MarkIncomplete)
}

// MarkReminderSent latches the reminder flag so a reminder is not sent twice
func (s *TaskService) MarkReminderSent(ctx context.Context, ownerID, id string) (*entities.Task, error) {
	return s.transition(ctx, ownerID, id, "mark_reminder_sent", entities.MarkReminderSent)
}

func (s *TaskService) transition(ctx context.Context, ownerID, id, action string, fn func(entities.Task, time.Time) entities.Task) (*entities.Task, error) {
	existing, err := s.store.FindOne(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	next := fn(*existing, s.now())
	return s.save(ctx, existing, &next, action)
}

func (s *TaskService) save(ctx context.Context, prev, next *entities.Task, action string) (*entities.Task, error) {
	updated, err := s.store.Update(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", strings.ReplaceAll(action, "_", " "), err)
	}

	if updated.IsCompleted && !prev.IsCompleted {
		s.metrics.TaskCompleted()
	}
	s.logger.LogUserAction(updated.OwnerID, action, map[string]interface{}{
		"task_id": updated.ID,
		"status":  updated.Status,
	})

	return updated, nil
}

// ListTasks returns one page of the owner's tasks plus pagination metadata
func (s *TaskService) ListTasks(ctx context.Context, ownerID string, query ports.TaskQuery) (*ports.TaskPage, error) {
	page := ClampPage(query.Page)
	limit := ClampLimit(query.Limit)
	filter := toFilter(ownerID, query)
	sort := []ports.SortKey{query.Sort}
	if query.Sort.Field == "" {
		sort = []ports.SortKey{{Field: ports.SortByCreatedAt, Order: ports.SortDesc}}
	}

	var (
		tasks []*entities.Task
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.store.Find(gctx, filter, sort, Skip(page, limit), limit)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.Count(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	if tasks == nil {
		tasks = []*entities.Task{}
	}

	return &ports.TaskPage{
		Tasks:      tasks,
		Pagination: NewPagination(page, limit, total),
	}, nil
}

func parseDueDate(s string) (time.Time, error) {
	t, err := ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, entities.NewValidationError("dueDate", "must be a valid date")
	}
	return t, nil
}
