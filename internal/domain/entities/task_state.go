package entities

import (
	"strings"
	"time"
)

// Synchronize keeps IsCompleted and Status in agreement after next was derived
// from prev, and normalizes tags. prev is the zero Task for a new task.
//
// A change of IsCompleted takes precedence over a change of Status.
func Synchronize(prev, next Task, now time.Time) Task {
	switch {
	case next.IsCompleted && !prev.IsCompleted:
		next = enterCompleted(next, now)
	case !next.IsCompleted && prev.IsCompleted:
		next = leaveCompleted(next)
	case next.Status != prev.Status && next.Status == TaskStatusCompleted:
		next = enterCompleted(next, now)
	case next.Status != prev.Status && prev.Status == TaskStatusCompleted:
		next.IsCompleted = false
		next.CompletedAt = nil
	}

	next.Tags = NormalizeTags(next.Tags)
	next.UpdatedAt = now
	return next
}

func enterCompleted(t Task, now time.Time) Task {
	t.IsCompleted = true
	t.Status = TaskStatusCompleted
	if t.CompletedAt == nil {
		completedAt := now
		t.CompletedAt = &completedAt
	}
	return t
}

func leaveCompleted(t Task) Task {
	t.IsCompleted = false
	t.CompletedAt = nil
	if t.Status == TaskStatusCompleted {
		t.Status = TaskStatusPending
	}
	return t
}

// MarkCompleted returns t completed at now. Completing a completed task keeps
// its original CompletedAt.
func MarkCompleted(t Task, now time.Time) Task {
	next := t
	next.IsCompleted = true
	return Synchronize(t, next, now)
}

// MarkIncomplete returns t reopened as pending
func MarkIncomplete(t Task, now time.Time) Task {
	next := t
	next.IsCompleted = false
	return Synchronize(t, next, now)
}

// MarkReminderSent latches the reminder flag
func MarkReminderSent(t Task, now time.Time) Task {
	next := t
	next.ReminderSent = true
	return Synchronize(t, next, now)
}

// NormalizeTags trims every tag, drops empty ones and removes duplicates,
// keeping the first occurrence. It never returns nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
