package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taskmate/core/internal/domain/assistant"
	"github.com/taskmate/core/internal/domain/entities"
	"github.com/taskmate/core/internal/infrastructure/logger"
	"github.com/taskmate/core/internal/ports"
)

const recentTaskTitles = 3

// AssistantService gathers the owner's task data and runs it through the
// assistant rule tables
type AssistantService struct {
	tasks    ports.TaskStore
	users    ports.UserStore
	metrics  ports.MetricsRecorder
	logger   *logger.Logger
	location *time.Location
	now      func() time.Time
}

// NewAssistantService creates a new assistant service. "Today" is evaluated
// in loc; a nil loc means UTC.
func NewAssistantService(tasks ports.TaskStore, users ports.UserStore, loc *time.Location, metrics ports.MetricsRecorder, logger *logger.Logger) *AssistantService {
	if loc == nil {
		loc = time.UTC
	}
	return &AssistantService{
		tasks:    tasks,
		users:    users,
		metrics:  metricsOrNop(metrics),
		logger:   logger.WithComponent("assistant_service"),
		location: loc,
		now:      time.Now,
	}
}

// WithClock replaces the time source
func (s *AssistantService) WithClock(now func() time.Time) *AssistantService {
	s.now = now
	return s
}

// Chat answers a free-text message using the caller's pending and overdue tasks
func (s *AssistantService) Chat(ctx context.Context, identityID string, req ports.ChatRequest) (*ports.ChatResponse, error) {
	if err := assistant.ValidateMessage(req.Message); err != nil {
		return nil, err
	}

	now := s.now()
	var (
		user             *entities.User
		pending, overdue []*entities.Task
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.users.FindByIdentity(gctx, identityID)
		if err != nil && !errors.Is(err, entities.ErrUserNotFound) {
			return err
		}
		user = u
		return nil
	})
	g.Go(func() error {
		var err error
		pending, err = s.tasks.Find(gctx, openFilter(identityID), pendingSort, 0, 0)
		return err
	})
	g.Go(func() error {
		var err error
		overdue, err = s.tasks.Find(gctx, overdueFilter(identityID, now), dueDateSort, 0, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build chat context: %w", err)
	}

	chatCtx := assistant.ChatContext{
		TotalPendingTasks: len(pending),
		OverdueTasksCount: len(overdue),
		HasOverdueTasks:   len(overdue) > 0,
		RecentTasks:       make([]string, 0, recentTaskTitles),
	}
	if user != nil {
		chatCtx.DisplayName = user.DisplayName
	}
	for i := 0; i < len(pending) && i < recentTaskTitles; i++ {
		chatCtx.RecentTasks = append(chatCtx.RecentTasks, pending[i].Title)
	}

	reply, err := assistant.Reply(req.Message, chatCtx)
	if err != nil {
		return nil, err
	}

	s.metrics.AssistantRequest("chat")
	s.logger.WithUserID(identityID).Debugw("Chat reply generated", "has_context", req.Context != "")

	return &ports.ChatResponse{
		Message:     reply.Message,
		Suggestions: reply.Suggestions,
		Timestamp:   now,
	}, nil
}

// SuggestTasks derives suggestions from the owner's pending, recently
// completed and overdue tasks
func (s *AssistantService) SuggestTasks(ctx context.Context, ownerID string) ([]assistant.Suggestion, error) {
	now := s.now()
	var pending, completed, overdue []*entities.Task

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pending, err = s.tasks.Find(gctx, openFilter(ownerID), pendingSort, 0, 0)
		return err
	})
	g.Go(func() error {
		var err error
		completed, err = s.tasks.Find(gctx, completedFilter(ownerID), recentCompletedSort, 0, recentCompletedLimit)
		return err
	})
	g.Go(func() error {
		var err error
		overdue, err = s.tasks.Find(gctx, overdueFilter(ownerID, now), dueDateSort, 0, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load tasks for suggestions: %w", err)
	}

	s.metrics.AssistantRequest("suggestions")
	return assistant.SuggestTasks(pending, completed, overdue), nil
}

// PlanDay builds a plan from the open tasks due today
func (s *AssistantService) PlanDay(ctx context.Context, ownerID string) (*assistant.DailyPlan, error) {
	start, end := dayBounds(s.now(), s.location)

	today, err := s.tasks.Find(ctx, dueWithinFilter(ownerID, start, end), dueDateSort, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load today's tasks: %w", err)
	}

	s.metrics.AssistantRequest("daily_plan")
	plan := assistant.PlanDay(today)
	return &plan, nil
}
