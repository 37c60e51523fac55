package assistant

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmate/core/internal/domain/entities"
)

func tasksWith(priority entities.Priority, n int) []*entities.Task {
	out := make([]*entities.Task, n)
	for i := range out {
		out[i] = &entities.Task{
			ID:       fmt.Sprintf("%s-%d", priority, i),
			Title:    fmt.Sprintf("%s task %d", priority, i),
			Priority: priority,
		}
	}
	return out
}

func TestSuggestTasks(t *testing.T) {
	tests := []struct {
		name      string
		pending   []*entities.Task
		completed []*entities.Task
		overdue   []*entities.Task
		want      []SuggestionType
	}{
		{
			name: "nothing applies",
			want: []SuggestionType{},
		},
		{
			name:    "overdue only",
			pending: tasksWith(entities.PriorityLow, 2),
			overdue: tasksWith(entities.PriorityMedium, 3),
			want:    []SuggestionType{SuggestionUrgent},
		},
		{
			name:    "exactly ten pending is not many",
			pending: tasksWith(entities.PriorityLow, 10),
			want:    []SuggestionType{},
		},
		{
			name:    "eleven pending",
			pending: tasksWith(entities.PriorityLow, 11),
			want:    []SuggestionType{SuggestionOrganization},
		},
		{
			name:      "high share above seventy percent",
			completed: append(tasksWith(entities.PriorityHigh, 8), tasksWith(entities.PriorityLow, 2)...),
			want:      []SuggestionType{SuggestionProductivity},
		},
		{
			name:      "high share at seventy percent",
			completed: append(tasksWith(entities.PriorityHigh, 7), tasksWith(entities.PriorityLow, 3)...),
			want:      []SuggestionType{},
		},
		{
			name:      "all rules in order",
			pending:   tasksWith(entities.PriorityMedium, 12),
			completed: tasksWith(entities.PriorityHigh, 1),
			overdue:   tasksWith(entities.PriorityHigh, 1),
			want:      []SuggestionType{SuggestionUrgent, SuggestionOrganization, SuggestionProductivity},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SuggestTasks(tt.pending, tt.completed, tt.overdue)
			require.NotNil(t, got)

			types := make([]SuggestionType, 0, len(got))
			for _, s := range got {
				types = append(types, s.Type)
			}
			assert.Equal(t, tt.want, types)
		})
	}
}

func TestSuggestTasks_UrgentText(t *testing.T) {
	got := SuggestTasks(nil, nil, tasksWith(entities.PriorityLow, 3))

	require.Len(t, got, 1)
	assert.Equal(t, "Address Overdue Tasks", got[0].Title)
	assert.Equal(t, "You have 3 overdue tasks. Consider rescheduling or breaking them into smaller pieces.", got[0].Description)
	assert.Equal(t, "prioritize_overdue", got[0].Action)
}

func TestPlanDay(t *testing.T) {
	high := tasksWith(entities.PriorityHigh, 5)
	medium := tasksWith(entities.PriorityMedium, 5)
	low := tasksWith(entities.PriorityLow, 3)

	var today []*entities.Task
	today = append(today, high...)
	today = append(today, medium...)
	today = append(today, low...)

	plan := PlanDay(today)

	assert.Equal(t, high[0:2], plan.Morning)
	assert.Equal(t, append(append([]*entities.Task{}, high[2:4]...), medium[0:2]...), plan.Afternoon)
	assert.Equal(t, append(append([]*entities.Task{}, medium[2:4]...), low[0:2]...), plan.Evening)
	assert.Equal(t,
		"Today you have 13 tasks scheduled. Focus on 5 high-priority items first, then tackle the medium-priority tasks.",
		plan.Summary)
}

func TestPlanDay_Empty(t *testing.T) {
	plan := PlanDay(nil)

	assert.NotNil(t, plan.Morning)
	assert.NotNil(t, plan.Afternoon)
	assert.NotNil(t, plan.Evening)
	assert.Empty(t, plan.Morning)
	assert.Empty(t, plan.Afternoon)
	assert.Empty(t, plan.Evening)
	assert.Equal(t,
		"Today you have 0 tasks scheduled. Focus on 0 high-priority items first, then tackle the medium-priority tasks.",
		plan.Summary)
}

func TestPlanDay_NoTaskTwice(t *testing.T) {
	today := append(tasksWith(entities.PriorityHigh, 3), tasksWith(entities.PriorityMedium, 3)...)
	plan := PlanDay(today)

	seen := map[string]bool{}
	for _, slot := range [][]*entities.Task{plan.Morning, plan.Afternoon, plan.Evening} {
		for _, task := range slot {
			assert.False(t, seen[task.ID], "task %s planned twice", task.ID)
			seen[task.ID] = true
		}
	}
}
