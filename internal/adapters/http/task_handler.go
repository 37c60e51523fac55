package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmate/core/internal/application/services"
	"github.com/taskmate/core/internal/domain/entities"
	"github.com/taskmate/core/internal/infrastructure/logger"
	"github.com/taskmate/core/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService ports.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger.WithComponent("task_handler"),
	}
}

// ListTasks godoc
// @Summary List tasks
// @Description List the caller's tasks with filtering, sorting and pagination
// @Tags tasks
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size (max 100)" default(10)
// @Param status query string false "Status" Enums(pending, in-progress, completed, cancelled)
// @Param priority query string false "Priority" Enums(low, medium, high)
// @Param category query string false "Category (case-insensitive substring)"
// @Param isCompleted query bool false "Completion flag"
// @Param dueBefore query string false "Due on or before (RFC3339 or YYYY-MM-DD)"
// @Param dueAfter query string false "Due on or after (RFC3339 or YYYY-MM-DD)"
// @Param tags query string false "Comma separated tags, any match"
// @Param sortBy query string false "Sort field" Enums(createdAt, dueDate, priority, title)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Security BearerAuth
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var raw ports.RawTaskQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid query parameters")
	}

	query, err := services.ParseTaskQuery(raw)
	if err != nil {
		return err
	}

	page, err := h.taskService.ListTasks(c.Request().Context(), userID, query)
	if err != nil {
		h.logger.Errorw("List tasks failed", "error", err, "user_id", userID)
		return err
	}

	return c.JSON(http.StatusOK, Response{
		Success:    true,
		Data:       Data{"tasks": page.Tasks},
		Pagination: &page.Pagination,
	})
}

// CreateTask godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body ports.CreateTaskRequest true "Task data"
// @Success 201 {object} Response
// @Failure 400 {object} Response
// @Security BearerAuth
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), userID, req)
	if err != nil {
		return err
	}

	return ok(c, http.StatusCreated, "Task created successfully", Data{"task": task})
}

// GetStatistics godoc
// @Summary Task statistics
// @Description Dashboard counters for the caller's tasks
// @Tags tasks
// @Produce json
// @Success 200 {object} Response
// @Security BearerAuth
// @Router /tasks/stats/overview [get]
func (h *TaskHandler) GetStatistics(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	stats, err := h.taskService.Statistics(c.Request().Context(), userID)
	if err != nil {
		h.logger.Errorw("Task statistics failed", "error", err, "user_id", userID)
		return err
	}

	return ok(c, http.StatusOK, "", Data{"stats": stats})
}

// GetTask godoc
// @Summary Get task by ID
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}

	return ok(c, http.StatusOK, "", Data{"task": task})
}

// UpdateTask godoc
// @Summary Update a task
// @Description Partial update; completion fields are kept in sync with status
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body ports.UpdateTaskRequest true "Fields to change"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Security BearerAuth
// @Router /tasks/{id} [put]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), userID, c.Param("id"), req)
	if err != nil {
		return err
	}

	return ok(c, http.StatusOK, "Task updated successfully", Data{"task": task})
}

// DeleteTask godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Security BearerAuth
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), userID, c.Param("id")); err != nil {
		return err
	}

	return ok(c, http.StatusOK, "Task deleted successfully", nil)
}

// MarkCompleted godoc
// @Summary Mark a task completed
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Security BearerAuth
// @Router /tasks/{id}/complete [post]
func (h *TaskHandler) MarkCompleted(c echo.Context) error {
	return h.transition(c, h.taskService.MarkCompleted, "Task marked as completed")
}

// MarkIncomplete godoc
// @Summary Mark a task incomplete
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Security BearerAuth
// @Router /tasks/{id}/incomplete [post]
func (h *TaskHandler) MarkIncomplete(c echo.Context) error {
	return h.transition(c, h.taskService.MarkIncomplete, "Task marked as incomplete")
}

// MarkReminderSent godoc
// @Summary Record that the reminder for a task was delivered
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Security BearerAuth
// @Router /tasks/{id}/reminder-sent [post]
func (h *TaskHandler) MarkReminderSent(c echo.Context) error {
	return h.transition(c, h.taskService.MarkReminderSent, "Reminder recorded")
}

type transitionFunc func(ctx context.Context, ownerID, id string) (*entities.Task, error)

func (h *TaskHandler) transition(c echo.Context, fn transitionFunc, message string) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return err
	}

	task, err := fn(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return err
	}

	return ok(c, http.StatusOK, message, Data{"task": task})
}
