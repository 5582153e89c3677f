package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aicruit/internal/models"
	"aicruit/internal/store"

	"github.com/google/uuid"
)

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	var jobs string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, full_name, role, jobs, invitation_accepted, created_at, updated_at
		FROM users WHERE lower(email) = ?`, models.NormalizeEmail(email)).Scan(
		&user.ID, &user.Email, &user.FullName, &user.Role, &jobs,
		&user.InvitationAccepted, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email '%s': %w", email, err)
	}
	if err := json.Unmarshal([]byte(jobs), &user.Jobs); err != nil {
		return nil, fmt.Errorf("decode jobs for user %s: %w", user.ID, err)
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
	jobs, err := json.Marshal(user.Jobs)
	if err != nil {
		return fmt.Errorf("encode user jobs: %w", err)
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, full_name, role, jobs, invitation_accepted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.FullName, user.Role, string(jobs), user.InvitationAccepted, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
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
	jobs, err := json.Marshal(user.Jobs)
	if err != nil {
		return fmt.Errorf("encode user jobs: %w", err)
	}
	user.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET email = ?, full_name = ?, role = ?, jobs = ?, invitation_accepted = ?, updated_at = ?
		WHERE id = ?`,
		user.Email, user.FullName, user.Role, string(jobs), user.InvitationAccepted, user.UpdatedAt, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user with email '%s' already exists: %w", user.Email, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to update user %s: %w", user.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", user.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteUserByEmail(ctx context.Context, email string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE lower(email) = ?`, models.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to delete user '%s': %w", email, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user '%s': %w", email, store.ErrNotFound)
	}
	return nil
}
