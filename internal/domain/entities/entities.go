package entities

import (
	"encoding/json"
	"strings"
	"time"
)

// Priority ranks how urgent a task is
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// TaskStatus is the workflow state of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Theme is the UI theme a user prefers
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

const (
	DefaultCategory = "general"
	DefaultLanguage = "en"

	MaxTitleLength       = 200
	MaxDescriptionLength = 1000
	MaxCategoryLength    = 50
	MaxTagLength         = 30
	MaxDisplayNameLength = 100
	MaxLanguageLength    = 5
)

// Task is a single to-do item owned by one user
type Task struct {
	ID           string     `json:"id"`
	Title        string     `json:"title" validate:"required,max=200"`
	Description  *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	DueDate      *time.Time `json:"dueDate,omitempty"`
	OwnerID      string     `json:"userId" validate:"required"`
	Priority     Priority   `json:"priority" validate:"oneof=low medium high"`
	Status       TaskStatus `json:"status" validate:"oneof=pending in-progress completed cancelled"`
	Category     string     `json:"category" validate:"max=50"`
	Tags         []string   `json:"tags" validate:"dive,max=30"`
	IsCompleted  bool       `json:"isCompleted"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	ReminderSent bool       `json:"reminderSent"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Preferences holds per-user presentation settings
type Preferences struct {
	Notifications bool   `json:"notifications"`
	Theme         Theme  `json:"theme" validate:"oneof=light dark auto"`
	Language      string `json:"language" validate:"max=5"`
}

// User is the profile attached to an external identity
type User struct {
	ID                 string      `json:"id"`
	ExternalIdentityID string      `json:"firebaseUid" validate:"required"`
	Email              string      `json:"email" validate:"required,email"`
	DisplayName        string      `json:"displayName,omitempty" validate:"max=100"`
	PhotoURL           string      `json:"photoURL,omitempty"`
	PushToken          string      `json:"fcmToken,omitempty"`
	IsActive           bool        `json:"isActive"`
	Preferences        Preferences `json:"preferences"`
	LastLoginAt        *time.Time  `json:"lastLoginAt,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// IsValid reports whether p is a known priority
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank orders priorities low < medium < high. Unknown values rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// IsValid reports whether s is a known status
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	}
	return false
}

func (t Theme) IsValid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeAuto:
		return true
	}
	return false
}

// DefaultPreferences returns the preferences given to new users
func DefaultPreferences() Preferences {
	return Preferences{
		Notifications: true,
		Theme:         ThemeAuto,
		Language:      DefaultLanguage,
	}
}

// IsOverdue reports whether the task is past due and still open at now
func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && !t.IsCompleted && t.DueDate.Before(now)
}

// MarshalJSON adds the derived isOverdue flag, evaluated at encoding time
func (t Task) MarshalJSON() ([]byte, error) {
	type task Task
	return json.Marshal(struct {
		task
		IsOverdue bool `json:"isOverdue"`
	}{
		task:      task(t),
		IsOverdue: t.IsOverdue(time.Now()),
	})
}

// ApplyDefaults fills in unset priority, status and category and trims text fields
func (t *Task) ApplyDefaults() {
	t.Title = strings.TrimSpace(t.Title)
	if t.Description != nil {
		d := strings.TrimSpace(*t.Description)
		if d == "" {
			t.Description = nil
		} else {
			t.Description = &d
		}
	}
	t.Category = strings.TrimSpace(t.Category)
	if t.Category == "" {
		t.Category = DefaultCategory
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
}

// ApplyDefaults normalizes the email and fills in unset preferences
func (u *User) ApplyDefaults() {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.DisplayName = strings.TrimSpace(u.DisplayName)
	if u.Preferences.Theme == "" {
		u.Preferences.Theme = ThemeAuto
	}
	if u.Preferences.Language == "" {
		u.Preferences.Language = DefaultLanguage
	}
}
