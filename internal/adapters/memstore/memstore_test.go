package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmate/core/internal/domain/entities"
	"github.com/taskmate/core/internal/ports"
)

func at(day int) *time.Time {
	t := time.Date(2024, 5, day, 12, 0, 0, 0, time.UTC)
	return &t
}

func seed(t *testing.T, s *TaskStore, tasks ...entities.Task) []*entities.Task {
	t.Helper()
	out := make([]*entities.Task, 0, len(tasks))
	for i := range tasks {
		task := tasks[i]
		task.ApplyDefaults()
		created, err := s.Insert(context.Background(), &task)
		require.NoError(t, err)
		out = append(out, created)
	}
	return out
}

func TestTaskStore_FindSortsMissingDueDatesLowest(t *testing.T) {
	s := NewTaskStore()
	seed(t, s,
		entities.Task{OwnerID: "u1", Title: "b", DueDate: at(3)},
		entities.Task{OwnerID: "u1", Title: "a"},
		entities.Task{OwnerID: "u1", Title: "c", DueDate: at(1)},
	)

	asc, err := s.Find(context.Background(), ports.TaskFilter{OwnerID: "u1"},
		[]ports.SortKey{{Field: ports.SortByDueDate, Order: ports.SortAsc}}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, titles(asc))

	desc, err := s.Find(context.Background(), ports.TaskFilter{OwnerID: "u1"},
		[]ports.SortKey{{Field: ports.SortByDueDate, Order: ports.SortDesc}}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, titles(desc))
}

func TestTaskStore_PrioritySortsByRank(t *testing.T) {
	s := NewTaskStore()
	seed(t, s,
		entities.Task{OwnerID: "u1", Title: "m", Priority: entities.PriorityMedium},
		entities.Task{OwnerID: "u1", Title: "h", Priority: entities.PriorityHigh},
		entities.Task{OwnerID: "u1", Title: "l", Priority: entities.PriorityLow},
	)

	got, err := s.Find(context.Background(), ports.TaskFilter{OwnerID: "u1"},
		[]ports.SortKey{{Field: ports.SortByPriority, Order: ports.SortDesc}}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"h", "m", "l"}, titles(got))
}

func TestTaskStore_SkipAndLimit(t *testing.T) {
	s := NewTaskStore()
	for _, title := range []string{"a", "b", "c", "d", "e"} {
		seed(t, s, entities.Task{OwnerID: "u1", Title: title})
	}
	byTitle := []ports.SortKey{{Field: ports.SortByTitle, Order: ports.SortAsc}}

	got, err := s.Find(context.Background(), ports.TaskFilter{OwnerID: "u1"}, byTitle, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, titles(got))

	got, err = s.Find(context.Background(), ports.TaskFilter{OwnerID: "u1"}, byTitle, 10, 2)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Find(context.Background(), ports.TaskFilter{OwnerID: "u1"}, byTitle, -3, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, titles(got))
}

func TestMatches(t *testing.T) {
	pending := entities.TaskStatusPending
	cancelled := entities.TaskStatusCancelled
	high := entities.PriorityHigh
	category := "WoRk"
	yes := true

	task := &entities.Task{
		OwnerID:  "u1",
		Status:   pending,
		Priority: high,
		Category: "homework",
		Tags:     []string{"school", "math"},
		DueDate:  at(10),
	}

	tests := []struct {
		name   string
		filter ports.TaskFilter
		want   bool
	}{
		{"owner only", ports.TaskFilter{OwnerID: "u1"}, true},
		{"other owner", ports.TaskFilter{OwnerID: "u2"}, false},
		{"status", ports.TaskFilter{OwnerID: "u1", Status: &pending}, true},
		{"excluded status", ports.TaskFilter{OwnerID: "u1", ExcludeStatus: &cancelled}, true},
		{"priority", ports.TaskFilter{OwnerID: "u1", Priority: &high}, true},
		{"category substring any case", ports.TaskFilter{OwnerID: "u1", Category: &category}, true},
		{"completed", ports.TaskFilter{OwnerID: "u1", IsCompleted: &yes}, false},
		{"due inclusive bounds", ports.TaskFilter{OwnerID: "u1", DueAfter: at(10), DueBefore: at(10)}, true},
		{"due before excludes later", ports.TaskFilter{OwnerID: "u1", DueBefore: at(9)}, false},
		{"overdue is strict", ports.TaskFilter{OwnerID: "u1", OverdueAt: at(10)}, false},
		{"overdue", ports.TaskFilter{OwnerID: "u1", OverdueAt: at(11)}, true},
		{"any tag", ports.TaskFilter{OwnerID: "u1", Tags: []string{"art", "math"}}, true},
		{"no tag", ports.TaskFilter{OwnerID: "u1", Tags: []string{"art"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.filter, task))
		})
	}
}

func TestTaskStore_OwnershipIsEnforced(t *testing.T) {
	s := NewTaskStore()
	created := seed(t, s, entities.Task{OwnerID: "u1", Title: "mine"})[0]
	ctx := context.Background()

	_, err := s.FindOne(ctx, "u2", created.ID)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)

	other := *created
	other.OwnerID = "u2"
	_, err = s.Update(ctx, &other)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)

	_, err = s.Delete(ctx, "u2", created.ID)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)

	_, err = s.Count(ctx, ports.TaskFilter{})
	assert.ErrorIs(t, err, entities.ErrStore)
}

func TestTaskStore_CountBy(t *testing.T) {
	s := NewTaskStore()
	seed(t, s,
		entities.Task{OwnerID: "u1", Title: "a", Priority: entities.PriorityHigh},
		entities.Task{OwnerID: "u1", Title: "b", Priority: entities.PriorityHigh, Category: "home"},
		entities.Task{OwnerID: "u1", Title: "c", Priority: entities.PriorityLow},
	)

	byPriority, err := s.CountBy(context.Background(), ports.GroupByPriority, ports.TaskFilter{OwnerID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"high": 2, "low": 1}, byPriority)

	byCategory, err := s.CountBy(context.Background(), ports.GroupByCategory, ports.TaskFilter{OwnerID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"general": 2, "home": 1}, byCategory)
}

func TestTaskStore_CancelledContext(t *testing.T) {
	s := NewTaskStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Find(ctx, ports.TaskFilter{OwnerID: "u1"}, nil, 0, 0)
	assert.ErrorIs(t, err, entities.ErrStore)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUserStore(t *testing.T) {
	s := NewUserStore()
	ctx := context.Background()

	created, err := s.Insert(ctx, &entities.User{ExternalIdentityID: "uid-1", Email: "a@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = s.Insert(ctx, &entities.User{ExternalIdentityID: "uid-2", Email: "a@example.com"})
	assert.ErrorIs(t, err, entities.ErrEmailTaken)

	found, err := s.FindByIdentity(ctx, "uid-1")
	require.NoError(t, err)
	found.DisplayName = "Ann"
	updated, err := s.Update(ctx, found)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Ann", updated.DisplayName)

	_, err = s.FindByIdentity(ctx, "missing")
	assert.ErrorIs(t, err, entities.ErrUserNotFound)
}

func titles(tasks []*entities.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}
