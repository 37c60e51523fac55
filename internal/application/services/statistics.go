package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taskmate/core/internal/domain/entities"
	"github.com/taskmate/core/internal/ports"
)

const completedWindow = 7 * 24 * time.Hour

// Statistics computes a snapshot of the owner's tasks. All counts are taken
// against a single evaluation time and run concurrently; the first failure
// cancels the rest.
func (s *TaskService) Statistics(ctx context.Context, ownerID string) (*ports.TaskStatistics, error) {
	now := s.now()
	owner := ports.TaskFilter{OwnerID: ownerID}
	since := now.Add(-completedWindow)

	var (
		stats      ports.TaskStatistics
		byPriority map[string]int64
		byCategory map[string]int64
	)

	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, f ports.TaskFilter) {
		g.Go(func() error {
			n, err := s.store.Count(gctx, f)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}

	count(&stats.TotalTasks, owner)
	count(&stats.CompletedTasks, completedFilter(ownerID))
	count(&stats.PendingTasks, openFilter(ownerID))
	count(&stats.OverdueTasks, overdueFilter(ownerID, now))

	recent := completedFilter(ownerID)
	recent.CompletedSince = &since
	count(&stats.RecentActivity.TasksCompletedThisWeek, recent)

	g.Go(func() error {
		var err error
		byPriority, err = s.store.CountBy(gctx, ports.GroupByPriority, owner)
		return err
	})
	g.Go(func() error {
		var err error
		byCategory, err = s.store.CountBy(gctx, ports.GroupByCategory, owner)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}

	stats.CompletionRate = CompletionRate(stats.CompletedTasks, stats.TotalTasks)
	stats.TasksByPriority = map[entities.Priority]int64{
		entities.PriorityLow:    byPriority[string(entities.PriorityLow)],
		entities.PriorityMedium: byPriority[string(entities.PriorityMedium)],
		entities.PriorityHigh:   byPriority[string(entities.PriorityHigh)],
	}
	stats.TasksByCategory = byCategory
	if stats.TasksByCategory == nil {
		stats.TasksByCategory = map[string]int64{}
	}

	return &stats, nil
}

// CompletionRate is completed/total as a rounded percentage, 0 for no tasks
func CompletionRate(completed, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
