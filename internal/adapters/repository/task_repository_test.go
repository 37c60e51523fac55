package repository

import (
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmate/core/internal/domain/entities"
	"github.com/taskmate/core/internal/ports"
)

func TestBuildTaskWhere_OwnerOnly(t *testing.T) {
	where, args, err := buildTaskWhere(ports.TaskFilter{OwnerID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "WHERE owner_id = $1", where)
	assert.Equal(t, []interface{}{"u1"}, args)
}

func TestBuildTaskWhere_RequiresOwner(t *testing.T) {
	_, _, err := buildTaskWhere(ports.TaskFilter{})
	assert.ErrorIs(t, err, entities.ErrStore)
	assert.ErrorIs(t, err, entities.ErrMissingOwner)
}

func TestBuildTaskWhere_AllPredicates(t *testing.T) {
	pending := entities.TaskStatusPending
	cancelled := entities.TaskStatusCancelled
	high := entities.PriorityHigh
	category := "50%_off"
	no := false
	after := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	before := after.AddDate(0, 1, 0)
	now := after.AddDate(0, 0, 10)
	since := after.AddDate(0, 0, 3)

	where, args, err := buildTaskWhere(ports.TaskFilter{
		OwnerID:        "u1",
		Status:         &pending,
		ExcludeStatus:  &cancelled,
		Priority:       &high,
		Category:       &category,
		IsCompleted:    &no,
		DueAfter:       &after,
		DueBefore:      &before,
		OverdueAt:      &now,
		CompletedSince: &since,
		Tags:           []string{"home", "work"},
	})
	require.NoError(t, err)

	assert.Equal(t, "WHERE owner_id = $1 AND status = $2 AND status <> $3 AND priority = $4"+
		" AND category ILIKE $5 AND is_completed = $6 AND due_date >= $7 AND due_date <= $8"+
		" AND due_date < $9 AND completed_at >= $10 AND tags && $11", where)

	require.Len(t, args, 11)
	assert.Equal(t, "pending", args[1])
	assert.Equal(t, "cancelled", args[2])
	assert.Equal(t, "high", args[3])
	assert.Equal(t, `%50\%\_off%`, args[4])
	assert.Equal(t, false, args[5])
	assert.Equal(t, after, args[6])
	assert.Equal(t, before, args[7])
	assert.Equal(t, now, args[8])
	assert.Equal(t, since, args[9])
	assert.Equal(t, pq.Array([]string{"home", "work"}), args[10])
}

func TestOrderClause(t *testing.T) {
	tests := []struct {
		name string
		keys []ports.SortKey
		want string
	}{
		{
			name: "none",
			keys: nil,
			want: "",
		},
		{
			name: "default createdAt desc",
			keys: []ports.SortKey{{Field: ports.SortByCreatedAt, Order: ports.SortDesc}},
			want: "created_at DESC NULLS LAST",
		},
		{
			name: "due date ascending",
			keys: []ports.SortKey{{Field: ports.SortByDueDate, Order: ports.SortAsc}},
			want: "due_date ASC NULLS FIRST",
		},
		{
			name: "priority descending by rank",
			keys: []ports.SortKey{{Field: ports.SortByPriority, Order: ports.SortDesc}},
			want: priorityRank + " DESC NULLS LAST",
		},
		{
			name: "repeated column",
			keys: []ports.SortKey{
				{Field: ports.SortByCreatedAt, Order: ports.SortDesc},
				{Field: ports.SortByCreatedAt, Order: ports.SortAsc},
			},
			want: "created_at DESC NULLS LAST",
		},
		{
			name: "compound",
			keys: []ports.SortKey{
				{Field: ports.SortByCompletedAt, Order: ports.SortDesc},
				{Field: ports.SortByTitle, Order: ports.SortAsc},
			},
			want: "completed_at DESC NULLS LAST, title ASC NULLS FIRST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderClause(tt.keys))
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\\b\%c\_d`, escapeLike(`a\b%c_d`))
	assert.Equal(t, "work", escapeLike("work"))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(assert.AnError))
}
