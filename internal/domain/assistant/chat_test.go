package assistant

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmate/core/internal/domain/entities"
)

func TestReply(t *testing.T) {
	ctx := ChatContext{
		DisplayName:       "Sam",
		TotalPendingTasks: 4,
		RecentTasks:       []string{"Pay rent", "Call mom"},
	}

	tests := []struct {
		name    string
		message string
		ctx     ChatContext
		want    string
	}{
		{
			name:    "greeting",
			message: "hi",
			ctx:     ChatContext{DisplayName: "Sam", TotalPendingTasks: 4},
			want:    "Hello Sam! I'm here to help you manage your tasks and stay productive. You currently have 4 pending tasks. How can I assist you today?",
		},
		{
			name:    "greeting beats tasks",
			message: "Hey, what about my tasks?",
			ctx:     ctx,
			want:    "Hello Sam! I'm here to help you manage your tasks and stay productive. You currently have 4 pending tasks. How can I assist you today?",
		},
		{
			name:    "tasks without overdue",
			message: "Show my TODO list",
			ctx:     ctx,
			want:    "You have 4 pending tasks. Here are your most important upcoming tasks: Pay rent, Call mom. Which one would you like to work on first?",
		},
		{
			name:    "tasks with overdue",
			message: "what tasks are left",
			ctx:     ChatContext{DisplayName: "Sam", HasOverdueTasks: true, OverdueTasksCount: 2},
			want:    "I notice you have 2 overdue tasks. Would you like me to help you prioritize them? It's important to tackle overdue items first to get back on track.",
		},
		{
			name:    "tasks with no recent titles",
			message: "task",
			ctx:     ChatContext{},
			want:    "You have 0 pending tasks. Here are your most important upcoming tasks: none. Which one would you like to work on first?",
		},
		{
			name:    "distress",
			message: "I'm so stressed",
			ctx:     ctx,
			want:    "I understand you're feeling overwhelmed. Let's break things down into manageable pieces. Would you like me to suggest a lighter schedule for today or help you identify which tasks are most urgent?",
		},
		{
			name:    "greeting inside a longer word",
			message: "hiya",
			ctx:     ChatContext{DisplayName: "Sam", TotalPendingTasks: 4},
			want:    "Hello Sam! I'm here to help you manage your tasks and stay productive. You currently have 4 pending tasks. How can I assist you today?",
		},
		{
			name:    "todo inside a compound word",
			message: "show my todolist",
			ctx:     ctx,
			want:    "You have 4 pending tasks. Here are your most important upcoming tasks: Pay rent, Call mom. Which one would you like to work on first?",
		},
		{
			name:    "task inside a compound word",
			message: "any subtasks left?",
			ctx:     ctx,
			want:    "You have 4 pending tasks. Here are your most important upcoming tasks: Pay rent, Call mom. Which one would you like to work on first?",
		},
		{
			name:    "product name contains task",
			message: "Open TaskMate",
			ctx:     ctx,
			want:    "You have 4 pending tasks. Here are your most important upcoming tasks: Pay rent, Call mom. Which one would you like to work on first?",
		},
		{
			name:    "no keyword",
			message: "what's up?",
			ctx:     ctx,
			want:    "I'm here to help you stay organized and productive! You can ask me about your tasks, get suggestions for better time management, or just chat about your goals.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := Reply(tt.message, tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply.Message)
			assert.Len(t, reply.Suggestions, 3)
		})
	}
}

func TestReply_DefaultDisplayName(t *testing.T) {
	reply, err := Reply("hello", ChatContext{TotalPendingTasks: 1})
	require.NoError(t, err)
	assert.Contains(t, reply.Message, "Hello User!")
	assert.Equal(t, []string{
		"Show me my overdue tasks",
		"What should I focus on today?",
		"Help me prioritize my tasks",
	}, reply.Suggestions)
}

func TestReply_EmptyMessage(t *testing.T) {
	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := Reply(msg, ChatContext{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, entities.ErrValidation))
	}
}

func TestReplyWith_CustomRules(t *testing.T) {
	rules := []ChatRule{{
		Name:  "thanks",
		Match: anyKeyword("thanks"),
		Respond: func(ChatContext) ChatReply {
			return ChatReply{Message: "You're welcome"}
		},
	}}

	reply, err := ReplyWith(rules, "Thanks!", ChatContext{})
	require.NoError(t, err)
	assert.Equal(t, "You're welcome", reply.Message)

	reply, err = ReplyWith(rules, "unmatched", ChatContext{})
	require.NoError(t, err)
	assert.Empty(t, reply.Message)
}
