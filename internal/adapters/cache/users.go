package cache

import (
	"context"
	"time"

	"github.com/taskmate/core/internal/domain/entities"
	"github.com/taskmate/core/internal/infrastructure/logger"
	"github.com/taskmate/core/internal/ports"
)

// CachedUserStore wraps a ports.UserStore with cache-aside profile lookups.
// Cache failures are logged and the call falls through to the store.
type CachedUserStore struct {
	next   ports.UserStore
	cache  ports.CacheRepository
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedUserStore decorates next with cache
func NewCachedUserStore(next ports.UserStore, cache ports.CacheRepository, ttl time.Duration, logger *logger.Logger) *CachedUserStore {
	return &CachedUserStore{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.WithComponent("user_cache"),
	}
}

func userKey(identityID string) string {
	return "user:" + identityID
}

func (s *CachedUserStore) FindByIdentity(ctx context.Context, identityID string) (*entities.User, error) {
	var cached entities.User
	found, err := s.cache.Get(ctx, userKey(identityID), &cached)
	if err != nil {
		s.logger.WithUserID(identityID).WithError(err).Warnw("Cache read failed")
	}
	if found {
		return &cached, nil
	}

	user, err := s.next.FindByIdentity(ctx, identityID)
	if err != nil {
		return nil, err
	}

	s.store(ctx, user)
	return user, nil
}

func (s *CachedUserStore) Insert(ctx context.Context, user *entities.User) (*entities.User, error) {
	created, err := s.next.Insert(ctx, user)
	if err != nil {
		return nil, err
	}

	s.store(ctx, created)
	return created, nil
}

func (s *CachedUserStore) Update(ctx context.Context, user *entities.User) (*entities.User, error) {
	updated, err := s.next.Update(ctx, user)
	if err != nil {
		if delErr := s.cache.Delete(ctx, userKey(user.ExternalIdentityID)); delErr != nil {
			s.logger.WithUserID(user.ExternalIdentityID).WithError(delErr).Warnw("Cache invalidation failed")
		}
		return nil, err
	}

	s.store(ctx, updated)
	return updated, nil
}

func (s *CachedUserStore) store(ctx context.Context, user *entities.User) {
	if err := s.cache.Set(ctx, userKey(user.ExternalIdentityID), user, s.ttl); err != nil {
		s.logger.WithUserID(user.ExternalIdentityID).WithError(err).Warnw("Cache write failed")
	}
}
