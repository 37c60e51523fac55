// Package assistant holds the rule tables behind task suggestions, the daily
// plan and chat replies. Everything here is deterministic and free of I/O.
package assistant

import (
	"fmt"

	"github.com/taskmate/core/internal/domain/entities"
)

// SuggestionType classifies a task suggestion
type SuggestionType string

const (
	SuggestionUrgent       SuggestionType = "urgent"
	SuggestionOrganization SuggestionType = "organization"
	SuggestionProductivity SuggestionType = "productivity"
)

const (
	manyPendingThreshold   = 10
	highPriorityShareBound = 0.7
)

// Suggestion is a canned productivity hint
type Suggestion struct {
	Type        SuggestionType `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Action      string         `json:"action"`
}

// DailyPlan spreads today's tasks over three time slots
type DailyPlan struct {
	Morning   []*entities.Task `json:"morning"`
	Afternoon []*entities.Task `json:"afternoon"`
	Evening   []*entities.Task `json:"evening"`
	Summary   string           `json:"summary"`
}

// SuggestTasks evaluates every suggestion rule in order and returns all that
// apply. The result is empty, never nil, when nothing applies.
func SuggestTasks(pending, completed, overdue []*entities.Task) []Suggestion {
	suggestions := []Suggestion{}

	if len(overdue) > 0 {
		suggestions = append(suggestions, Suggestion{
			Type:        SuggestionUrgent,
			Title:       "Address Overdue Tasks",
			Description: fmt.Sprintf("You have %d overdue tasks. Consider rescheduling or breaking them into smaller pieces.", len(overdue)),
			Action:      "prioritize_overdue",
		})
	}

	if len(pending) > manyPendingThreshold {
		suggestions = append(suggestions, Suggestion{
			Type:        SuggestionOrganization,
			Title:       "Task Cleanup",
			Description: "You have many pending tasks. Consider archiving completed ones and prioritizing the rest.",
			Action:      "organize_tasks",
		})
	}

	if len(completed) > 0 {
		high := len(filterPriority(completed, entities.PriorityHigh))
		if float64(high)/float64(len(completed)) > highPriorityShareBound {
			suggestions = append(suggestions, Suggestion{
				Type:        SuggestionProductivity,
				Title:       "Great Job on High Priority Tasks!",
				Description: "You're excellent at completing high-priority tasks. Keep focusing on what matters most.",
				Action:      "continue_prioritizing",
			})
		}
	}

	return suggestions
}

// PlanDay assigns today's tasks to slots by priority. Each slot takes at most
// two tasks of a priority band; the rest are left out of the plan.
func PlanDay(today []*entities.Task) DailyPlan {
	high := filterPriority(today, entities.PriorityHigh)
	medium := filterPriority(today, entities.PriorityMedium)
	low := filterPriority(today, entities.PriorityLow)

	plan := DailyPlan{
		Morning:   []*entities.Task{},
		Afternoon: []*entities.Task{},
		Evening:   []*entities.Task{},
	}
	plan.Morning = append(plan.Morning, window(high, 0, 2)...)
	plan.Afternoon = append(plan.Afternoon, window(high, 2, 4)...)
	plan.Afternoon = append(plan.Afternoon, window(medium, 0, 2)...)
	plan.Evening = append(plan.Evening, window(medium, 2, 4)...)
	plan.Evening = append(plan.Evening, window(low, 0, 2)...)

	plan.Summary = fmt.Sprintf(
		"Today you have %d tasks scheduled. Focus on %d high-priority items first, then tackle the medium-priority tasks.",
		len(today), len(high),
	)
	return plan
}

func filterPriority(tasks []*entities.Task, p entities.Priority) []*entities.Task {
	var out []*entities.Task
	for _, t := range tasks {
		if t.Priority == p {
			out = append(out, t)
		}
	}
	return out
}

// window returns tasks[from:to] clipped to the slice bounds
func window(tasks []*entities.Task, from, to int) []*entities.Task {
	if from >= len(tasks) {
		return nil
	}
	if to > len(tasks) {
		to = len(tasks)
	}
	return tasks[from:to]
}
