package primary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aicruit/internal/models"
	"aicruit/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// --- User Store Implementation ---

const userColumns = `id, email, full_name, role, jobs, invitation_accepted, created_at, updated_at`

func (s *StoreImpl) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = $1`
	user := &models.User{}
	var jobs []byte
	err := s.db.QueryRow(ctx, query, models.NormalizeEmail(email)).Scan(
		&user.ID, &user.Email, &user.FullName, &user.Role, &jobs,
		&user.InvitationAccepted, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email '%s': %w", email, err)
	}
	if err := json.Unmarshal(jobs, &user.Jobs); err != nil {
		return nil, fmt.Errorf("decode jobs for user %s: %w", user.ID, err)
	}
	return user, nil
}

func (s *StoreImpl) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Jobs == nil {
		user.Jobs = []string{}
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	jobs, err := json.Marshal(user.Jobs)
	if err != nil {
		return fmt.Errorf("encode user jobs: %w", err)
	}
	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8)`
	_, err = s.db.Exec(ctx, query,
		user.ID, user.Email, user.FullName, user.Role, string(jobs),
		user.InvitationAccepted, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user with email '%s' already exists: %w", user.Email, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *StoreImpl) UpdateUser(ctx context.Context, user *models.User) error {
	if user.Jobs == nil {
		user.Jobs = []string{}
	}
	jobs, err := json.Marshal(user.Jobs)
	if err != nil {
		return fmt.Errorf("encode user jobs: %w", err)
	}
	user.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE users
		SET email = $2, full_name = $3, role = $4, jobs = $5::jsonb, invitation_accepted = $6, updated_at = $7
		WHERE id = $1`
	cmdTag, err := s.db.Exec(ctx, query,
		user.ID, user.Email, user.FullName, user.Role, string(jobs), user.InvitationAccepted, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user with email '%s' already exists: %w", user.Email, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to update user %s: %w", user.ID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", user.ID, store.ErrNotFound)
	}
	return nil
}

func (s *StoreImpl) DeleteUserByEmail(ctx context.Context, email string) error {
	cmdTag, err := s.db.Exec(ctx, `DELETE FROM users WHERE lower(email) = $1`, models.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to delete user '%s': %w", email, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user '%s': %w", email, store.ErrNotFound)
	}
	return nil
}

// Ensure StoreImpl satisfies the UserStore interface
var _ store.UserStore = (*StoreImpl)(nil)
