package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskmate/core/internal/domain/entities"
	"github.com/taskmate/core/internal/infrastructure/logger"
	"github.com/taskmate/core/internal/ports"
)

// UserService handles profile operations keyed by external identity
type UserService struct {
	store  ports.UserStore
	logger *logger.Logger
	now    func() time.Time
}

// NewUserService creates a new user service
func NewUserService(store ports.UserStore, logger *logger.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger.WithComponent("user_service"),
		now:    time.Now,
	}
}

// WithClock replaces the time source
func (s *UserService) WithClock(now func() time.Time) *UserService {
	s.now = now
	return s
}

// Register logs in an existing user or creates a profile for a new identity.
// The boolean result reports whether a profile was created.
func (s *UserService) Register(ctx context.Context, identity ports.Identity, req ports.RegisterRequest) (*entities.User, bool, error) {
	now := s.now()

	existing, err := s.store.FindByIdentity(ctx, identity.ID)
	switch {
	case err == nil:
		existing.LastLoginAt = &now
		existing.UpdatedAt = now
		updated, err := s.store.Update(ctx, existing)
		if err != nil {
			return nil, false, fmt.Errorf("failed to record login: %w", err)
		}
		s.logger.LogUserAction(identity.ID, "login", nil)
		return updated, false, nil
	case !errors.Is(err, entities.ErrUserNotFound):
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	user := entities.User{
		ExternalIdentityID: identity.ID,
		Email:              identity.Email,
		DisplayName:        identity.Name,
		PhotoURL:           identity.Picture,
		IsActive:           true,
		Preferences:        entities.DefaultPreferences(),
		LastLoginAt:        &now,
	}
	if req.DisplayName != nil && strings.TrimSpace(*req.DisplayName) != "" {
		user.DisplayName = *req.DisplayName
	}
	if req.PushToken != nil {
		user.PushToken = strings.TrimSpace(*req.PushToken)
	}

	user.ApplyDefaults()
	if err := user.Validate(); err != nil {
		return nil, false, err
	}

	created, err := s.store.Insert(ctx, &user)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.LogUserAction(identity.ID, "register", map[string]interface{}{"email": created.Email})
	return created, true, nil
}

// GetProfile returns the caller's profile and records the access as a login
func (s *UserService) GetProfile(ctx context.Context, identityID string) (*entities.User, error) {
	user, err := s.store.FindByIdentity(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	now := s.now()
	user.LastLoginAt = &now
	updated, err := s.store.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	return updated, nil
}

// UpdateProfile applies a partial profile update
func (s *UserService) UpdateProfile(ctx context.Context, identityID string, req ports.UpdateProfileRequest) (*entities.User, error) {
	user, err := s.store.FindByIdentity(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.PhotoURL != nil {
		user.PhotoURL = strings.TrimSpace(*req.PhotoURL)
	}
	if req.PushToken != nil {
		user.PushToken = strings.TrimSpace(*req.PushToken)
	}
	if p := req.Preferences; p != nil {
		if p.Notifications != nil {
			user.Preferences.Notifications = *p.Notifications
		}
		if p.Theme != nil {
			user.Preferences.Theme = *p.Theme
		}
		if p.Language != nil {
			user.Preferences.Language = strings.TrimSpace(*p.Language)
		}
	}

	user.ApplyDefaults()
	if err := user.Validate(); err != nil {
		return nil, err
	}

	return s.save(ctx, user, "update_profile")
}

// UpdatePushToken stores the device token used for push delivery
func (s *UserService) UpdatePushToken(ctx context.Context, identityID, token string) (*entities.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, entities.NewValidationError("fcmToken", "FCM token is required")
	}

	user, err := s.store.FindByIdentity(ctx, identityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	user.PushToken = token
	return s.save(ctx, user, "update_push_token")
}

// Deactivate soft-deletes the caller's profile
func (s *UserService) Deactivate(ctx context.Context, identityID string) error {
	user, err := s.store.FindByIdentity(ctx, identityID)
	if err != nil {
		return fmt.Errorf("failed to get profile: %w", err)
	}

	user.IsActive = false
	_, err = s.save(ctx, user, "deactivate")
	return err
}

func (s *UserService) save(ctx context.Context, user *entities.User, action string) (*entities.User, error) {
	user.UpdatedAt = s.now()
	updated, err := s.store.Update(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", strings.ReplaceAll(action, "_", " "), err)
	}

	s.logger.LogUserAction(user.ExternalIdentityID, action, nil)
	return updated, nil
}
