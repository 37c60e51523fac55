package assistant

import (
	"fmt"
	"strings"

	"github.com/taskmate/core/internal/domain/entities"
)

const defaultDisplayName = "User"

// ChatContext is the per-user data a chat reply may reference
type ChatContext struct {
	DisplayName       string
	TotalPendingTasks int
	OverdueTasksCount int
	HasOverdueTasks   bool
	// RecentTasks holds up to three pending task titles, most urgent first
	RecentTasks []string
}

// ChatReply is the assistant's answer plus follow-up prompts
type ChatReply struct {
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions"`
}

// ChatRule pairs a keyword predicate with a reply template. Match receives
// the lowercased message.
type ChatRule struct {
	Name    string
	Match   func(message string) bool
	Respond func(ChatContext) ChatReply
}

// DefaultRules is the ordered rule table. The first matching rule wins;
// the last rule always matches.
var DefaultRules = []ChatRule{
	{
		Name:  "greeting",
		Match: anyKeyword("hello", "hi", "hey"),
		Respond: func(c ChatContext) ChatReply {
			return ChatReply{
				Message: fmt.Sprintf(
					"Hello %s! I'm here to help you manage your tasks and stay productive. You currently have %d pending tasks. How can I assist you today?",
					c.DisplayName, c.TotalPendingTasks,
				),
				Suggestions: []string{
					"Show me my overdue tasks",
					"What should I focus on today?",
					"Help me prioritize my tasks",
				},
			}
		},
	},
	{
		Name:    "tasks",
		Match:   anyKeyword("task", "todo"),
		Respond: respondTasks,
	},
	{
		Name:  "distress",
		Match: anyKeyword("tired", "stressed", "overwhelmed"),
		Respond: func(ChatContext) ChatReply {
			return ChatReply{
				Message: "I understand you're feeling overwhelmed. Let's break things down into manageable pieces. Would you like me to suggest a lighter schedule for today or help you identify which tasks are most urgent?",
				Suggestions: []string{
					"Create a lighter schedule",
					"Show priority tasks only",
					"Suggest a break schedule",
				},
			}
		},
	},
	{
		Name:  "fallback",
		Match: func(string) bool { return true },
		Respond: func(ChatContext) ChatReply {
			return ChatReply{
				Message: "I'm here to help you stay organized and productive! You can ask me about your tasks, get suggestions for better time management, or just chat about your goals.",
				Suggestions: []string{
					"What are my priorities today?",
					"Help me organize my tasks",
					"Give me productivity tips",
				},
			}
		},
	},
}

func respondTasks(c ChatContext) ChatReply {
	if c.HasOverdueTasks {
		return ChatReply{
			Message: fmt.Sprintf(
				"I notice you have %d overdue tasks. Would you like me to help you prioritize them? It's important to tackle overdue items first to get back on track.",
				c.OverdueTasksCount,
			),
			Suggestions: []string{
				"Show me overdue tasks",
				"Help me reschedule overdue tasks",
				"Create a catch-up plan",
			},
		}
	}

	titles := "none"
	if len(c.RecentTasks) > 0 {
		titles = strings.Join(c.RecentTasks, ", ")
	}
	return ChatReply{
		Message: fmt.Sprintf(
			"You have %d pending tasks. Here are your most important upcoming tasks: %s. Which one would you like to work on first?",
			c.TotalPendingTasks, titles,
		),
		Suggestions: []string{
			"Show me today's tasks",
			"Help me prioritize",
			"Create a new task",
		},
	}
}

// Reply answers message using DefaultRules
func Reply(message string, c ChatContext) (ChatReply, error) {
	return ReplyWith(DefaultRules, message, c)
}

// ReplyWith answers message using the first matching rule in rules
func ReplyWith(rules []ChatRule, message string, c ChatContext) (ChatReply, error) {
	if err := ValidateMessage(message); err != nil {
		return ChatReply{}, err
	}
	if strings.TrimSpace(c.DisplayName) == "" {
		c.DisplayName = defaultDisplayName
	}

	lower := strings.ToLower(message)
	for _, rule := range rules {
		if rule.Match(lower) {
			return rule.Respond(c), nil
		}
	}
	return ChatReply{Suggestions: []string{}}, nil
}

// ValidateMessage rejects empty or whitespace-only messages
func ValidateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return entities.NewValidationError("message", "Message is required")
	}
	return nil
}

// anyKeyword matches when the message contains one of the keywords anywhere,
// including inside longer words
func anyKeyword(keywords ...string) func(string) bool {
	return func(message string) bool {
		for _, k := range keywords {
			if strings.Contains(message, k) {
				return true
			}
		}
		return false
	}
}
