package services

import (
	"time"

	"github.com/taskmate/core/internal/domain/entities"
	"github.com/taskmate/core/internal/ports"
)

const recentCompletedLimit = 10

func boolPtr(b bool) *bool { return &b }

func statusPtr(s entities.TaskStatus) *entities.TaskStatus { return &s }

// openFilter matches tasks that are neither completed nor cancelled
func openFilter(ownerID string) ports.TaskFilter {
	return ports.TaskFilter{
		OwnerID:       ownerID,
		IsCompleted:   boolPtr(false),
		ExcludeStatus: statusPtr(entities.TaskStatusCancelled),
	}
}

func overdueFilter(ownerID string, now time.Time) ports.TaskFilter {
	f := openFilter(ownerID)
	f.OverdueAt = &now
	return f
}

func completedFilter(ownerID string) ports.TaskFilter {
	return ports.TaskFilter{OwnerID: ownerID, IsCompleted: boolPtr(true)}
}

// dueWithinFilter matches open tasks due in [from, to]
func dueWithinFilter(ownerID string, from, to time.Time) ports.TaskFilter {
	f := openFilter(ownerID)
	f.DueAfter = &from
	f.DueBefore = &to
	return f
}

var (
	pendingSort = []ports.SortKey{
		{Field: ports.SortByDueDate, Order: ports.SortAsc},
		{Field: ports.SortByPriority, Order: ports.SortDesc},
	}
	dueDateSort         = []ports.SortKey{{Field: ports.SortByDueDate, Order: ports.SortAsc}}
	recentCompletedSort = []ports.SortKey{{Field: ports.SortByCompletedAt, Order: ports.SortDesc}}
)

// dayBounds returns the first and last instant of the calendar day holding
// now in loc
func dayBounds(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}
