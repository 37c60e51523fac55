package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskmate/core/internal/domain/entities"
)

type preferencesDocument struct {
	Notifications bool   `bson:"notifications"`
	Theme         string `bson:"theme"`
	Language      string `bson:"language"`
}

type userDocument struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	IdentityID  string              `bson:"identityId"`
	Email       string              `bson:"email"`
	DisplayName string              `bson:"displayName"`
	PhotoURL    string              `bson:"photoURL"`
	PushToken   string              `bson:"fcmToken"`
	IsActive    bool                `bson:"isActive"`
	Preferences preferencesDocument `bson:"preferences"`
	LastLoginAt *time.Time          `bson:"lastLoginAt,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt"`
}

func newUserDocument(u *entities.User) userDocument {
	return userDocument{
		IdentityID:  u.ExternalIdentityID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		PushToken:   u.PushToken,
		IsActive:    u.IsActive,
		Preferences: preferencesDocument{
			Notifications: u.Preferences.Notifications,
			Theme:         string(u.Preferences.Theme),
			Language:      u.Preferences.Language,
		},
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (d userDocument) entity() *entities.User {
	return &entities.User{
		ID:                 d.ID.Hex(),
		ExternalIdentityID: d.IdentityID,
		Email:              d.Email,
		DisplayName:        d.DisplayName,
		PhotoURL:           d.PhotoURL,
		PushToken:          d.PushToken,
		IsActive:           d.IsActive,
		Preferences: entities.Preferences{
			Notifications: d.Preferences.Notifications,
			Theme:         entities.Theme(d.Preferences.Theme),
			Language:      d.Preferences.Language,
		},
		LastLoginAt: d.LastLoginAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// UserStore implements ports.UserStore on a MongoDB collection
type UserStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewUserStore creates a user store backed by the users collection of db
func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{coll: db.Collection(UsersCollection), now: time.Now}
}

func (s *UserStore) FindByIdentity(ctx context.Context, identityID string) (*entities.User, error) {
	var doc userDocument
	err := s.coll.FindOne(ctx, bson.M{"identityId": identityID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entities.ErrUserNotFound
		}
		return nil, entities.NewStoreError("get user by identity", err)
	}
	return doc.entity(), nil
}

func (s *UserStore) Insert(ctx context.Context, user *entities.User) (*entities.User, error) {
	doc := newUserDocument(user)
	doc.ID = primitive.NewObjectID()
	now := s.now()
	doc.CreatedAt, doc.UpdatedAt = now, now

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, entities.ErrEmailTaken
		}
		return nil, entities.NewStoreError("create user", err)
	}
	return doc.entity(), nil
}

func (s *UserStore) Update(ctx context.Context, user *entities.User) (*entities.User, error) {
	doc := newUserDocument(user)
	updatedAt := doc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = s.now()
	}

	set := bson.M{
		"email":       doc.Email,
		"displayName": doc.DisplayName,
		"photoURL":    doc.PhotoURL,
		"fcmToken":    doc.PushToken,
		"isActive":    doc.IsActive,
		"preferences": doc.Preferences,
		"lastLoginAt": doc.LastLoginAt,
		"updatedAt":   updatedAt,
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated userDocument
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"identityId": user.ExternalIdentityID}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entities.ErrUserNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, entities.ErrEmailTaken
		}
		return nil, entities.NewStoreError("update user", err)
	}
	return updated.entity(), nil
}
