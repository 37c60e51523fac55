// Package memstore keeps tasks and users in process memory. It backs the
// "memory" storage driver and the service tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskmate/core/internal/domain/entities"
	"github.com/taskmate/core/internal/ports"
)

// TaskStore is a mutex-guarded ports.TaskStore
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*entities.Task
	order []string
	now   func() time.Time
}

// NewTaskStore creates an empty task store
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[string]*entities.Task),
		now:   time.Now,
	}
}

// WithClock replaces the time source used for creation timestamps
func (s *TaskStore) WithClock(now func() time.Time) *TaskStore {
	s.now = now
	return s
}

func (s *TaskStore) Find(ctx context.Context, filter ports.TaskFilter, keys []ports.SortKey, skip, limit int) ([]*entities.Task, error) {
	matched, err := s.match(ctx, filter)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return Less(matched[i], matched[j], keys)
	})

	if skip < 0 {
		skip = 0
	}
	if skip >= len(matched) {
		return []*entities.Task{}, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *TaskStore) Count(ctx context.Context, filter ports.TaskFilter) (int64, error) {
	matched, err := s.match(ctx, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (s *TaskStore) CountBy(ctx context.Context, field ports.GroupField, filter ports.TaskFilter) (map[string]int64, error) {
	matched, err := s.match(ctx, filter)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, t := range matched {
		switch field {
		case ports.GroupByPriority:
			counts[string(t.Priority)]++
		case ports.GroupByCategory:
			counts[t.Category]++
		case ports.GroupByStatus:
			counts[string(t.Status)]++
		}
	}
	return counts, nil
}

func (s *TaskStore) FindOne(ctx context.Context, ownerID, id string) (*entities.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, entities.NewStoreError("find task", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, entities.ErrTaskNotFound
	}
	return clone(t), nil
}

func (s *TaskStore) Insert(ctx context.Context, task *entities.Task) (*entities.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, entities.NewStoreError("insert task", err)
	}
	if task.OwnerID == "" {
		return nil, entities.NewStoreError("insert task", entities.ErrMissingOwner)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := clone(task)
	t.ID = uuid.NewString()
	now := s.now()
	t.CreatedAt = now
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	s.tasks[t.ID] = t
	s.order = append(s.order, t.ID)
	return clone(t), nil
}

func (s *TaskStore) Update(ctx context.Context, task *entities.Task) (*entities.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, entities.NewStoreError("update task", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[task.ID]
	if !ok || existing.OwnerID != task.OwnerID {
		return nil, entities.ErrTaskNotFound
	}
	t := clone(task)
	t.CreatedAt = existing.CreatedAt
	s.tasks[t.ID] = t
	return clone(t), nil
}

func (s *TaskStore) Delete(ctx context.Context, ownerID, id string) (*entities.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, entities.NewStoreError("delete task", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, entities.ErrTaskNotFound
	}
	delete(s.tasks, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return t, nil
}

// match returns clones of the tasks matching filter in insertion order
func (s *TaskStore) match(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, entities.NewStoreError("query tasks", err)
	}
	if filter.OwnerID == "" {
		return nil, entities.NewStoreError("query tasks", entities.ErrMissingOwner)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*entities.Task{}
	for _, id := range s.order {
		if t := s.tasks[id]; Matches(filter, t) {
			out = append(out, clone(t))
		}
	}
	return out, nil
}

// Matches reports whether t satisfies every predicate set in f
func Matches(f ports.TaskFilter, t *entities.Task) bool {
	if t.OwnerID != f.OwnerID {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.ExcludeStatus != nil && t.Status == *f.ExcludeStatus {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Category != nil && !strings.Contains(strings.ToLower(t.Category), strings.ToLower(*f.Category)) {
		return false
	}
	if f.IsCompleted != nil && t.IsCompleted != *f.IsCompleted {
		return false
	}
	if f.DueAfter != nil && (t.DueDate == nil || t.DueDate.Before(*f.DueAfter)) {
		return false
	}
	if f.DueBefore != nil && (t.DueDate == nil || t.DueDate.After(*f.DueBefore)) {
		return false
	}
	if f.OverdueAt != nil && (t.DueDate == nil || !t.DueDate.Before(*f.OverdueAt)) {
		return false
	}
	if f.CompletedSince != nil && (t.CompletedAt == nil || t.CompletedAt.Before(*f.CompletedSince)) {
		return false
	}
	if len(f.Tags) > 0 && !anyTag(t.Tags, f.Tags) {
		return false
	}
	return true
}

func anyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// Less orders a before b by keys. Missing dates sort lowest.
func Less(a, b *entities.Task, keys []ports.SortKey) bool {
	for _, k := range keys {
		c := compare(a, b, k.Field)
		if c == 0 {
			continue
		}
		if k.Order == ports.SortAsc {
			return c < 0
		}
		return c > 0
	}
	return false
}

func compare(a, b *entities.Task, field ports.SortField) int {
	switch field {
	case ports.SortByDueDate:
		return compareTimes(a.DueDate, b.DueDate)
	case ports.SortByCompletedAt:
		return compareTimes(a.CompletedAt, b.CompletedAt)
	case ports.SortByPriority:
		return a.Priority.Rank() - b.Priority.Rank()
	case ports.SortByTitle:
		return strings.Compare(a.Title, b.Title)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func clone(t *entities.Task) *entities.Task {
	c := *t
	c.Tags = append([]string{}, t.Tags...)
	return &c
}
