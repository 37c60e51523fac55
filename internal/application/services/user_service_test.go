package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmate/core/internal/adapters/memstore"
	"github.com/taskmate/core/internal/domain/entities"
	"github.com/taskmate/core/internal/infrastructure/logger"
	"github.com/taskmate/core/internal/ports"
)

func newUserService() *UserService {
	return NewUserService(memstore.NewUserStore(), logger.NewNop()).
		WithClock(func() time.Time { return fixedNow })
}

var annIdentity = ports.Identity{
	ID:      "uid-ann",
	Email:   "Ann@Example.com ",
	Name:    "Ann",
	Picture: "https://example.com/ann.png",
}

func TestUserService_Register(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()

	user, created, err := svc.Register(ctx, annIdentity, ports.RegisterRequest{PushToken: strPtr("device-1")})
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, "Ann", user.DisplayName)
	assert.Equal(t, "https://example.com/ann.png", user.PhotoURL)
	assert.Equal(t, "device-1", user.PushToken)
	assert.True(t, user.IsActive)
	assert.Equal(t, entities.DefaultPreferences(), user.Preferences)

	again, created, err := svc.Register(ctx, annIdentity, ports.RegisterRequest{DisplayName: strPtr("Someone else")})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "Ann", again.DisplayName)
	require.NotNil(t, again.LastLoginAt)
	assert.Equal(t, fixedNow, *again.LastLoginAt)
}

func TestUserService_RegisterDisplayNameOverride(t *testing.T) {
	svc := newUserService()

	user, _, err := svc.Register(context.Background(), annIdentity, ports.RegisterRequest{DisplayName: strPtr("Annie")})
	require.NoError(t, err)
	assert.Equal(t, "Annie", user.DisplayName)
}

func TestUserService_RegisterRejectsInvalidEmail(t *testing.T) {
	svc := newUserService()

	_, _, err := svc.Register(context.Background(), ports.Identity{ID: "uid-x", Email: "not-an-email"}, ports.RegisterRequest{})
	var verr *entities.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)
}

func TestUserService_UpdateProfile(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()
	_, _, err := svc.Register(ctx, annIdentity, ports.RegisterRequest{})
	require.NoError(t, err)

	dark := entities.ThemeDark
	off := false
	user, err := svc.UpdateProfile(ctx, annIdentity.ID, ports.UpdateProfileRequest{
		DisplayName: strPtr("  Ann B  "),
		Preferences: &ports.PreferencesUpdate{Theme: &dark, Notifications: &off},
	})
	require.NoError(t, err)

	assert.Equal(t, "Ann B", user.DisplayName)
	assert.Equal(t, entities.ThemeDark, user.Preferences.Theme)
	assert.False(t, user.Preferences.Notifications)
	assert.Equal(t, entities.DefaultLanguage, user.Preferences.Language)
}

func TestUserService_UpdateProfileValidation(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()
	_, _, err := svc.Register(ctx, annIdentity, ports.RegisterRequest{})
	require.NoError(t, err)

	lang := "english"
	_, err = svc.UpdateProfile(ctx, annIdentity.ID, ports.UpdateProfileRequest{
		Preferences: &ports.PreferencesUpdate{Language: &lang},
	})
	var verr *entities.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "preferences.language", verr.Field)
}

func TestUserService_UpdatePushToken(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()
	_, _, err := svc.Register(ctx, annIdentity, ports.RegisterRequest{})
	require.NoError(t, err)

	_, err = svc.UpdatePushToken(ctx, annIdentity.ID, " ")
	var verr *entities.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "fcmToken", verr.Field)

	user, err := svc.UpdatePushToken(ctx, annIdentity.ID, "device-2")
	require.NoError(t, err)
	assert.Equal(t, "device-2", user.PushToken)
}

func TestUserService_Deactivate(t *testing.T) {
	svc := newUserService()
	ctx := context.Background()
	_, _, err := svc.Register(ctx, annIdentity, ports.RegisterRequest{})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, annIdentity.ID))

	user, err := svc.GetProfile(ctx, annIdentity.ID)
	require.NoError(t, err)
	assert.False(t, user.IsActive)
}

func TestUserService_UnknownIdentity(t *testing.T) {
	svc := newUserService()

	_, err := svc.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, entities.ErrUserNotFound)

	err = svc.Deactivate(context.Background(), "missing")
	assert.ErrorIs(t, err, entities.ErrUserNotFound)
}
