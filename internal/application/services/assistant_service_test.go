package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmate/core/internal/adapters/memstore"
	"github.com/taskmate/core/internal/domain/assistant"
	"github.com/taskmate/core/internal/domain/entities"
	"github.com/taskmate/core/internal/infrastructure/logger"
	"github.com/taskmate/core/internal/ports"
)

type assistantFixture struct {
	svc   *AssistantService
	tasks *TaskService
	users *memstore.UserStore
	rec   *countingRecorder
}

func newAssistantFixture(t *testing.T, loc *time.Location) assistantFixture {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	store := memstore.NewTaskStore().WithClock(clock)
	users := memstore.NewUserStore()
	rec := &countingRecorder{}

	return assistantFixture{
		svc:   NewAssistantService(store, users, loc, rec, logger.NewNop()).WithClock(clock),
		tasks: NewTaskService(store, nil, logger.NewNop()).WithClock(clock),
		users: users,
		rec:   rec,
	}
}

func (f assistantFixture) create(t *testing.T, owner string, req ports.CreateTaskRequest) *entities.Task {
	t.Helper()
	task, err := f.tasks.CreateTask(context.Background(), owner, req)
	require.NoError(t, err)
	return task
}

func TestAssistantService_ChatGreetingUsesDisplayName(t *testing.T) {
	f := newAssistantFixture(t, nil)
	_, err := f.users.Insert(context.Background(), &entities.User{
		ExternalIdentityID: "u1",
		Email:              "ann@example.com",
		DisplayName:        "Ann",
	})
	require.NoError(t, err)
	f.create(t, "u1", ports.CreateTaskRequest{Title: "one"})
	f.create(t, "u1", ports.CreateTaskRequest{Title: "two"})

	resp, err := f.svc.Chat(context.Background(), "u1", ports.ChatRequest{Message: "Hi there"})
	require.NoError(t, err)

	assert.Equal(t, "Hello Ann! I'm here to help you manage your tasks and stay productive. You currently have 2 pending tasks. How can I assist you today?", resp.Message)
	assert.Len(t, resp.Suggestions, 3)
	assert.Equal(t, fixedNow, resp.Timestamp)
	assert.Equal(t, 1, f.rec.assistant["chat"])
}

func TestAssistantService_ChatUnknownUserFallsBackToDefaultName(t *testing.T) {
	f := newAssistantFixture(t, nil)

	resp, err := f.svc.Chat(context.Background(), "ghost", ports.ChatRequest{Message: "hello"})
	require.NoError(t, err)
	assert.Contains(t, resp.Message, "Hello User!")
	assert.Contains(t, resp.Message, "You currently have 0 pending tasks")
}

func TestAssistantService_ChatTasks(t *testing.T) {
	f := newAssistantFixture(t, nil)
	for _, title := range []string{"a", "b", "c", "d"} {
		f.create(t, "u1", ports.CreateTaskRequest{Title: title})
	}
	f.create(t, "u1", ports.CreateTaskRequest{Title: "closed", IsCompleted: true})

	resp, err := f.svc.Chat(context.Background(), "u1", ports.ChatRequest{Message: "what are my tasks"})
	require.NoError(t, err)
	assert.Equal(t, "You have 4 pending tasks. Here are your most important upcoming tasks: a, b, c. Which one would you like to work on first?", resp.Message)
}

func TestAssistantService_ChatOverdue(t *testing.T) {
	f := newAssistantFixture(t, nil)
	f.create(t, "u1", ports.CreateTaskRequest{Title: "late", DueDate: strPtr("2024-06-01")})

	resp, err := f.svc.Chat(context.Background(), "u1", ports.ChatRequest{Message: "todo?"})
	require.NoError(t, err)
	assert.Equal(t, "I notice you have 1 overdue tasks. Would you like me to help you prioritize them? It's important to tackle overdue items first to get back on track.", resp.Message)
}

func TestAssistantService_ChatRequiresMessage(t *testing.T) {
	f := newAssistantFixture(t, nil)

	_, err := f.svc.Chat(context.Background(), "u1", ports.ChatRequest{Message: "  "})
	var verr *entities.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "message", verr.Field)
	assert.Equal(t, "Message is required", verr.Reason)
}

func TestAssistantService_SuggestTasks(t *testing.T) {
	f := newAssistantFixture(t, nil)
	for i := 0; i < 11; i++ {
		f.create(t, "u1", ports.CreateTaskRequest{Title: fmt.Sprintf("pending %d", i)})
	}
	f.create(t, "u1", ports.CreateTaskRequest{Title: "late", DueDate: strPtr("2024-06-01")})

	suggestions, err := f.svc.SuggestTasks(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, suggestions, 2)
	assert.Equal(t, assistant.SuggestionUrgent, suggestions[0].Type)
	assert.Equal(t, "You have 1 overdue tasks. Consider rescheduling or breaking them into smaller pieces.", suggestions[0].Description)
	assert.Equal(t, assistant.SuggestionOrganization, suggestions[1].Type)
	assert.Equal(t, 1, f.rec.assistant["suggestions"])
}

func TestAssistantService_SuggestTasksNone(t *testing.T) {
	f := newAssistantFixture(t, nil)

	suggestions, err := f.svc.SuggestTasks(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, suggestions)
	assert.Empty(t, suggestions)
}

func TestAssistantService_PlanDay(t *testing.T) {
	f := newAssistantFixture(t, nil)
	today := "2024-06-12T15:00:00Z"
	tomorrow := "2024-06-13T09:00:00Z"

	f.create(t, "u1", ports.CreateTaskRequest{Title: "h1", Priority: entities.PriorityHigh, DueDate: &today})
	f.create(t, "u1", ports.CreateTaskRequest{Title: "m1", Priority: entities.PriorityMedium, DueDate: &today})
	f.create(t, "u1", ports.CreateTaskRequest{Title: "l1", Priority: entities.PriorityLow, DueDate: &today})
	f.create(t, "u1", ports.CreateTaskRequest{Title: "done", Priority: entities.PriorityHigh, DueDate: &today, IsCompleted: true})
	f.create(t, "u1", ports.CreateTaskRequest{Title: "later", Priority: entities.PriorityHigh, DueDate: &tomorrow})

	plan, err := f.svc.PlanDay(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, plan.Morning, 1)
	assert.Equal(t, "h1", plan.Morning[0].Title)
	require.Len(t, plan.Afternoon, 1)
	assert.Equal(t, "m1", plan.Afternoon[0].Title)
	require.Len(t, plan.Evening, 1)
	assert.Equal(t, "l1", plan.Evening[0].Title)
	assert.Equal(t, 1, f.rec.assistant["daily_plan"])
}

func TestAssistantService_PlanDayUsesConfiguredTimezone(t *testing.T) {
	// fixedNow is 2024-06-12 10:00 UTC, which is already June 13 in Tokyo
	tokyo := time.FixedZone("JST", 9*60*60)
	f := newAssistantFixture(t, tokyo)
	f.create(t, "u1", ports.CreateTaskRequest{Title: "utc today", Priority: entities.PriorityHigh, DueDate: strPtr("2024-06-12T12:00:00Z")})
	f.create(t, "u1", ports.CreateTaskRequest{Title: "tokyo today", Priority: entities.PriorityHigh, DueDate: strPtr("2024-06-13T10:00:00+09:00")})

	plan, err := f.svc.PlanDay(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, plan.Morning, 1)
	assert.Equal(t, "tokyo today", plan.Morning[0].Title)
}

func TestAssistantService_PlanDayEmpty(t *testing.T) {
	f := newAssistantFixture(t, nil)

	plan, err := f.svc.PlanDay(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, plan.Morning)
	assert.NotNil(t, plan.Afternoon)
	assert.NotNil(t, plan.Evening)
	assert.Empty(t, plan.Morning)
}

func TestDayBounds(t *testing.T) {
	start, end := dayBounds(fixedNow, time.UTC)
	assert.Equal(t, time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 6, 12, 23, 59, 59, 999999999, time.UTC), end)
}
