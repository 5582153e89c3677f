package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aicruit/internal/models"
	"aicruit/internal/store"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	opts := options.FindOne().SetCollation(emailCollation)
	err := s.users().FindOne(ctx, bson.M{"email": strings.TrimSpace(email)}, opts).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email '%s': %w", email, err)
	}
	return user, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Jobs == nil {
		user.Jobs = []string{}
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	if _, err := s.users().InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user with email '%s' already exists: %w", user.Email, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	if user.Jobs == nil {
		user.Jobs = []string{}
	}
	user.UpdatedAt = time.Now().UTC()
	res, err := s.users().ReplaceOne(ctx, bson.M{"id": user.ID}, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user with email '%s' already exists: %w", user.Email, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to update user %s: %w", user.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", user.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteUserByEmail(ctx context.Context, email string) error {
	opts := options.Delete().SetCollation(emailCollation)
	res, err := s.users().DeleteOne(ctx, bson.M{"email": strings.TrimSpace(email)}, opts)
	if err != nil {
		return fmt.Errorf("failed to delete user '%s': %w", email, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("user '%s': %w", email, store.ErrNotFound)
	}
	return nil
}
