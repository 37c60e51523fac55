package ports

import (
	"context"
	"time"

	"github.com/taskmate/core/internal/domain/entities"
)

// TaskStore defines the persistence operations for tasks. Every call is
// scoped to a single owner.
type TaskStore interface {
	// Find returns matching tasks ordered by sort. A limit of 0 means no limit.
	Find(ctx context.Context, filter TaskFilter, sort []SortKey, skip, limit int) ([]*entities.Task, error)
	Count(ctx context.Context, filter TaskFilter) (int64, error)
	// CountBy groups matching tasks by field and counts each group
	CountBy(ctx context.Context, field GroupField, filter TaskFilter) (map[string]int64, error)
	FindOne(ctx context.Context, ownerID, id string) (*entities.Task, error)
	// Insert assigns the ID and creation timestamps
	Insert(ctx context.Context, task *entities.Task) (*entities.Task, error)
	// Update replaces the task identified by (OwnerID, ID)
	Update(ctx context.Context, task *entities.Task) (*entities.Task, error)
	Delete(ctx context.Context, ownerID, id string) (*entities.Task, error)
}

// UserStore defines the persistence operations for user profiles
type UserStore interface {
	FindByIdentity(ctx context.Context, identityID string) (*entities.User, error)
	Insert(ctx context.Context, user *entities.User) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) (*entities.User, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	// Get reports a miss with found == false and a nil error
	Get(ctx context.Context, key string, dest interface{}) (found bool, err error)
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
	Ping(ctx context.Context) error
}

// TaskFilter is the closed set of predicates a store understands. Unset
// fields do not constrain the result; set fields are AND-combined.
type TaskFilter struct {
	OwnerID       string
	Status        *entities.TaskStatus
	ExcludeStatus *entities.TaskStatus
	Priority      *entities.Priority
	// Category matches case-insensitively as a literal substring
	Category    *string
	IsCompleted *bool
	// DueAfter and DueBefore are inclusive bounds on the due date
	DueAfter  *time.Time
	DueBefore *time.Time
	// OverdueAt matches tasks due strictly before the instant
	OverdueAt *time.Time
	// CompletedSince matches tasks completed at or after the instant
	CompletedSince *time.Time
	// Tags matches tasks carrying at least one of the tags
	Tags []string
}

// SortField names a sortable task attribute
type SortField string

const (
	SortByCreatedAt   SortField = "createdAt"
	SortByDueDate     SortField = "dueDate"
	SortByPriority    SortField = "priority"
	SortByTitle       SortField = "title"
	SortByCompletedAt SortField = "completedAt"
)

// IsValid reports whether f may be requested by API clients.
// completedAt is only used internally.
func (f SortField) IsValid() bool {
	switch f {
	case SortByCreatedAt, SortByDueDate, SortByPriority, SortByTitle:
		return true
	}
	return false
}

// SortOrder is ascending or descending
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// SortKey is one ordering term. Missing values sort lowest.
type SortKey struct {
	Field SortField
	Order SortOrder
}

// GroupField names an attribute tasks can be grouped by
type GroupField string

const (
	GroupByPriority GroupField = "priority"
	GroupByCategory GroupField = "category"
	GroupByStatus   GroupField = "status"
)
