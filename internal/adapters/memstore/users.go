package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskmate/core/internal/domain/entities"
)

// UserStore is a mutex-guarded ports.UserStore keyed by external identity
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*entities.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*entities.User)}
}

func (s *UserStore) FindByIdentity(ctx context.Context, identityID string) (*entities.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, entities.NewStoreError("find user", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[identityID]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (s *UserStore) Insert(ctx context.Context, user *entities.User) (*entities.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, entities.NewStoreError("insert user", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ExternalIdentityID == user.ExternalIdentityID || u.Email == user.Email {
			return nil, entities.ErrEmailTaken
		}
	}

	c := *user
	c.ID = uuid.NewString()
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	s.users[c.ExternalIdentityID] = &c

	out := c
	return &out, nil
}

func (s *UserStore) Update(ctx context.Context, user *entities.User) (*entities.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, entities.NewStoreError("update user", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ExternalIdentityID]
	if !ok {
		return nil, entities.ErrUserNotFound
	}
	for id, u := range s.users {
		if id != user.ExternalIdentityID && u.Email == user.Email {
			return nil, entities.ErrEmailTaken
		}
	}

	c := *user
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	s.users[c.ExternalIdentityID] = &c

	out := c
	return &out, nil
}
