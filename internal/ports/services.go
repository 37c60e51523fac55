package ports

import (
	"context"
	"time"

	"github.com/taskmate/core/internal/domain/assistant"
	"github.com/taskmate/core/internal/domain/entities"
)

// TaskService interface for task management operations
type TaskService interface {
	CreateTask(ctx context.Context, ownerID string, req CreateTaskRequest) (*entities.Task, error)
	GetTask(ctx context.Context, ownerID, id string) (*entities.Task, error)
	UpdateTask(ctx context.Context, ownerID, id string, req UpdateTaskRequest) (*entities.Task, error)
	DeleteTask(ctx context.Context, ownerID, id string) error
	MarkCompleted(ctx context.Context, ownerID, id string) (*entities.Task, error)
	MarkIncomplete(ctx context.Context, ownerID, id string) (*entities.Task, error)
	MarkReminderSent(ctx context.Context, ownerID, id string) (*entities.Task, error)
	ListTasks(ctx context.Context, ownerID string, query TaskQuery) (*TaskPage, error)
	Statistics(ctx context.Context, ownerID string) (*TaskStatistics, error)
}

// AssistantService interface for the rule-based assistant
type AssistantService interface {
	Chat(ctx context.Context, identityID string, req ChatRequest) (*ChatResponse, error)
	SuggestTasks(ctx context.Context, ownerID string) ([]assistant.Suggestion, error)
	PlanDay(ctx context.Context, ownerID string) (*assistant.DailyPlan, error)
}

// UserService interface for profile operations
type UserService interface {
	Register(ctx context.Context, identity Identity, req RegisterRequest) (*entities.User, bool, error)
	GetProfile(ctx context.Context, identityID string) (*entities.User, error)
	UpdateProfile(ctx context.Context, identityID string, req UpdateProfileRequest) (*entities.User, error)
	UpdatePushToken(ctx context.Context, identityID, token string) (*entities.User, error)
	Deactivate(ctx context.Context, identityID string) error
}

// MetricsRecorder receives domain events worth counting
type MetricsRecorder interface {
	TaskCreated()
	TaskCompleted()
	AssistantRequest(kind string)
}

// IdentityVerifier turns a bearer token into a verified identity
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Identity is the verified caller as reported by the identity provider
type Identity struct {
	ID            string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Task related types

// RawTaskQuery carries list parameters exactly as received
type RawTaskQuery struct {
	Page        string `query:"page"`
	Limit       string `query:"limit"`
	Status      string `query:"status"`
	Priority    string `query:"priority"`
	Category    string `query:"category"`
	IsCompleted string `query:"isCompleted"`
	DueBefore   string `query:"dueBefore"`
	DueAfter    string `query:"dueAfter"`
	Tags        string `query:"tags"`
	SortBy      string `query:"sortBy"`
	SortOrder   string `query:"sortOrder"`
}

// TaskQuery is a parsed, clamped list request
type TaskQuery struct {
	Page        int
	Limit       int
	Status      *entities.TaskStatus
	Priority    *entities.Priority
	Category    *string
	IsCompleted *bool
	DueBefore   *time.Time
	DueAfter    *time.Time
	Tags        []string
	Sort        SortKey
}

// CreateTaskRequest holds the fields of a new task. Length limits apply after
// trimming and are enforced by the task entity.
type CreateTaskRequest struct {
	Title       string              `json:"title" validate:"required"`
	Description *string             `json:"description"`
	DueDate     *string             `json:"dueDate"`
	Priority    entities.Priority   `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      entities.TaskStatus `json:"status" validate:"omitempty,oneof=pending in-progress completed cancelled"`
	Category    string              `json:"category"`
	Tags        []string            `json:"tags"`
	IsCompleted bool                `json:"isCompleted"`
}

// UpdateTaskRequest holds a partial update. Nil fields are left unchanged;
// an empty DueDate clears the due date.
type UpdateTaskRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	DueDate     *string              `json:"dueDate"`
	Priority    *entities.Priority   `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status      *entities.TaskStatus `json:"status" validate:"omitempty,oneof=pending in-progress completed cancelled"`
	Category    *string              `json:"category"`
	Tags        *[]string            `json:"tags"`
	IsCompleted *bool                `json:"isCompleted"`
}

// Pagination describes where a page sits in the full result
type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

type TaskPage struct {
	Tasks      []*entities.Task `json:"tasks"`
	Pagination Pagination       `json:"pagination"`
}

type RecentActivity struct {
	TasksCompletedThisWeek int64 `json:"tasksCompletedThisWeek"`
	// always 0
	TasksCreatedThisWeek int64 `json:"tasksCreatedThisWeek"`
	// always 0
	Streak int64 `json:"streak"`
}

// TaskStatistics is a point-in-time summary of one user's tasks
type TaskStatistics struct {
	TotalTasks      int64                       `json:"totalTasks"`
	CompletedTasks  int64                       `json:"completedTasks"`
	PendingTasks    int64                       `json:"pendingTasks"`
	OverdueTasks    int64                       `json:"overdueTasks"`
	CompletionRate  int                         `json:"completionRate"`
	TasksByPriority map[entities.Priority]int64 `json:"tasksByPriority"`
	TasksByCategory map[string]int64            `json:"tasksByCategory"`
	RecentActivity  RecentActivity              `json:"recentActivity"`
}

// Assistant related types

type ChatRequest struct {
	Message string `json:"message"`
	Context string `json:"context"`
}

type ChatResponse struct {
	Message     string    `json:"message"`
	Suggestions []string  `json:"suggestions"`
	Timestamp   time.Time `json:"timestamp"`
}

// User related types

type RegisterRequest struct {
	DisplayName *string `json:"displayName" validate:"omitempty,max=100"`
	PushToken   *string `json:"fcmToken"`
}

type PreferencesUpdate struct {
	Notifications *bool           `json:"notifications"`
	Theme         *entities.Theme `json:"theme" validate:"omitempty,oneof=light dark auto"`
	Language      *string         `json:"language" validate:"omitempty,max=5"`
}

type UpdateProfileRequest struct {
	DisplayName *string            `json:"displayName" validate:"omitempty,max=100"`
	PhotoURL    *string            `json:"photoURL"`
	PushToken   *string            `json:"fcmToken"`
	Preferences *PreferencesUpdate `json:"preferences"`
}

type PushTokenRequest struct {
	Token string `json:"fcmToken" validate:"required"`
}
