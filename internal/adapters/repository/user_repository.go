package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/taskmate/core/internal/domain/entities"
)

const userColumns = `id, identity_id, email, display_name, photo_url, push_token, is_active,
	notifications, theme, language, last_login_at, created_at, updated_at`

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures
const uniqueViolation = "23505"

// UserRepository implements ports.UserStore on PostgreSQL
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByIdentity(ctx context.Context, identityID string) (*entities.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE identity_id = $1", userColumns)

	user, err := scanUser(r.db.QueryRowxContext(ctx, query, identityID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		return nil, entities.NewStoreError("get user by identity", err)
	}

	return user, nil
}

func (r *UserRepository) Insert(ctx context.Context, user *entities.User) (*entities.User, error) {
	query := `
		INSERT INTO users (id, identity_id, email, display_name, photo_url, push_token, is_active,
			notifications, theme, language, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	created := *user
	created.ID = uuid.NewString()

	err := r.db.QueryRowContext(ctx, query,
		created.ID, created.ExternalIdentityID, created.Email, created.DisplayName,
		created.PhotoURL, created.PushToken, created.IsActive,
		created.Preferences.Notifications, created.Preferences.Theme, created.Preferences.Language,
		created.LastLoginAt,
	).Scan(&created.CreatedAt, &created.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, entities.ErrEmailTaken
		}
		return nil, entities.NewStoreError("create user", err)
	}

	return &created, nil
}

func (r *UserRepository) Update(ctx context.Context, user *entities.User) (*entities.User, error) {
	query := `
		UPDATE users
		SET email = $2, display_name = $3, photo_url = $4, push_token = $5, is_active = $6,
			notifications = $7, theme = $8, language = $9, last_login_at = $10, updated_at = CURRENT_TIMESTAMP
		WHERE identity_id = $1
		RETURNING id, created_at, updated_at`

	updated := *user
	err := r.db.QueryRowContext(ctx, query,
		updated.ExternalIdentityID, updated.Email, updated.DisplayName, updated.PhotoURL,
		updated.PushToken, updated.IsActive,
		updated.Preferences.Notifications, updated.Preferences.Theme, updated.Preferences.Language,
		updated.LastLoginAt,
	).Scan(&updated.ID, &updated.CreatedAt, &updated.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return nil, entities.ErrEmailTaken
		}
		return nil, entities.NewStoreError("update user", err)
	}

	return &updated, nil
}

func scanUser(row rowScanner) (*entities.User, error) {
	var user entities.User
	err := row.Scan(
		&user.ID,
		&user.ExternalIdentityID,
		&user.Email,
		&user.DisplayName,
		&user.PhotoURL,
		&user.PushToken,
		&user.IsActive,
		&user.Preferences.Notifications,
		&user.Preferences.Theme,
		&user.Preferences.Language,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
