package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/taskmate/core/internal/domain/entities"
	"github.com/taskmate/core/internal/ports"
)

func TestTaskQuery_OwnerOnly(t *testing.T) {
	q, err := taskQuery(ports.TaskFilter{OwnerID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"userId": "u1"}, q)
}

func TestTaskQuery_RequiresOwner(t *testing.T) {
	_, err := taskQuery(ports.TaskFilter{})
	assert.ErrorIs(t, err, entities.ErrMissingOwner)
}

func TestTaskQuery_CombinesPredicates(t *testing.T) {
	pending := entities.TaskStatusPending
	cancelled := entities.TaskStatusCancelled
	category := "c++ (work)"
	yes := true
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	since := from.AddDate(0, 0, -7)

	q, err := taskQuery(ports.TaskFilter{
		OwnerID:        "u1",
		Status:         &pending,
		ExcludeStatus:  &cancelled,
		Category:       &category,
		IsCompleted:    &yes,
		DueAfter:       &from,
		DueBefore:      &to,
		CompletedSince: &since,
		Tags:           []string{"a", "b"},
	})
	require.NoError(t, err)

	assert.Equal(t, bson.M{
		"userId":      "u1",
		"status":      bson.M{"$eq": "pending", "$ne": "cancelled"},
		"category":    primitive.Regex{Pattern: `c\+\+ \(work\)`, Options: "i"},
		"isCompleted": true,
		"dueDate":     bson.M{"$gte": from, "$lte": to},
		"completedAt": bson.M{"$gte": since},
		"tags":        bson.M{"$in": []string{"a", "b"}},
	}, q)
}

func TestSortDocument(t *testing.T) {
	tests := []struct {
		name string
		keys []ports.SortKey
		want bson.D
	}{
		{
			name: "none",
			keys: nil,
			want: bson.D{},
		},
		{
			name: "default createdAt desc",
			keys: []ports.SortKey{{Field: ports.SortByCreatedAt, Order: ports.SortDesc}},
			want: bson.D{{Key: "createdAt", Value: -1}},
		},
		{
			name: "compound",
			keys: []ports.SortKey{
				{Field: ports.SortByDueDate, Order: ports.SortAsc},
				{Field: ports.SortByPriority, Order: ports.SortDesc},
			},
			want: bson.D{{Key: "dueDate", Value: 1}, {Key: "priorityRank", Value: -1}},
		},
		{
			name: "repeated field",
			keys: []ports.SortKey{
				{Field: ports.SortByCreatedAt, Order: ports.SortDesc},
				{Field: ports.SortByCreatedAt, Order: ports.SortAsc},
			},
			want: bson.D{{Key: "createdAt", Value: -1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sortDocument(tt.keys))
		})
	}
}

func TestTaskDocumentRoundTrip(t *testing.T) {
	due := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	task := &entities.Task{
		OwnerID:  "u1",
		Title:    "Pay rent",
		DueDate:  &due,
		Priority: entities.PriorityHigh,
		Status:   entities.TaskStatusPending,
		Category: "home",
	}

	doc := newTaskDocument(task)
	assert.Equal(t, 3, doc.PriorityRank)
	assert.Equal(t, []string{}, doc.Tags)

	doc.ID = primitive.NewObjectID()
	back := doc.entity()
	assert.Equal(t, doc.ID.Hex(), back.ID)
	assert.Equal(t, task.Title, back.Title)
	assert.Equal(t, task.Priority, back.Priority)
	assert.Equal(t, &due, back.DueDate)
}
