package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aicruit/internal/config"
	"aicruit/internal/models"
	"aicruit/internal/store"
	"aicruit/internal/util"

	log "github.com/sirupsen/logrus"
)

// IdentityService keeps user accounts in line with the identity a resume
// turned out to carry.
type IdentityService struct {
	users store.UserStore
	eval  config.EvaluationConfig
}

func NewIdentityService(users store.UserStore, eval config.EvaluationConfig) *IdentityService {
	return &IdentityService{users: users, eval: eval}
}

// Reconcile applies an extracted name and email to the user behind
// currentEmail. It returns the email the candidate should carry from now on,
// or "" when the candidate's email stays as it is.
//
// When the extracted email already belongs to another user, that user is
// linked to the job and the account under currentEmail is deleted.
func (s *IdentityService) Reconcile(ctx context.Context, jobID, currentEmail, name, email string) (string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	cur, err := s.lookup(ctx, currentEmail)
	if err != nil {
		return "", err
	}

	if cur != nil && name != "" && cur.FullName != name {
		cur.FullName = name
		if err := s.users.UpdateUser(ctx, cur); err != nil {
			log.WithError(err).WithField("email", cur.Email).Warn("Failed saving updated user name")
		}
	}

	if email == "" || s.eval.IsPlaceholderEmail(email) ||
		models.NormalizeEmail(email) == models.NormalizeEmail(currentEmail) {
		return "", nil
	}

	existing, err := s.lookup(ctx, email)
	if err != nil {
		return "", err
	}

	logger := log.WithFields(log.Fields{"job_id": jobID, "from": currentEmail, "to": email})

	if existing == nil {
		err := s.adopt(ctx, cur, jobID, name, email)
		if err == nil {
			logger.Info("Moved candidate user to extracted email")
			return email, nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return "", err
		}
		// A concurrent reconciliation took the address first; merge into it.
		if existing, err = s.lookup(ctx, email); err != nil {
			return "", err
		}
		if existing == nil {
			return "", fmt.Errorf("user %s vanished during reconciliation: %w", email, store.ErrNotFound)
		}
	}

	if name != "" {
		existing.FullName = name
	}
	existing.AddJob(jobID)
	if err := s.users.UpdateUser(ctx, existing); err != nil {
		return "", fmt.Errorf("merge into user %s: %w", email, err)
	}
	logger.Info("Merged extracted info into existing user")

	if cur != nil && cur.ID != existing.ID {
		if err := s.users.DeleteUserByEmail(ctx, cur.Email); err != nil && !errors.Is(err, store.ErrNotFound) {
			logger.WithError(err).Warn("Failed to delete superseded user after merge")
		}
	}
	return email, nil
}

// adopt gives email an account: the user behind the old address takes it
// over, or a new candidate user is created. cur is left untouched on error.
func (s *IdentityService) adopt(ctx context.Context, cur *models.User, jobID, name, email string) error {
	if cur == nil {
		u := &models.User{
			Email:    email,
			FullName: name,
			Role:     models.RoleCandidate,
			Jobs:     []string{jobID},
		}
		if err := s.users.CreateUser(ctx, u); err != nil {
			return fmt.Errorf("create user %s: %w", email, err)
		}
		return nil
	}

	moved := *cur
	moved.Jobs = append([]string(nil), cur.Jobs...)
	moved.Email = email
	if name != "" {
		moved.FullName = name
	}
	moved.AddJob(jobID)
	if err := s.users.UpdateUser(ctx, &moved); err != nil {
		return fmt.Errorf("update user email to %s: %w", email, err)
	}
	return nil
}

// EnsureCandidateUser makes sure a Candidate account exists for email and is
// linked to jobID.
func (s *IdentityService) EnsureCandidateUser(ctx context.Context, jobID, email string) error {
	u, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	if u == nil {
		return s.users.CreateUser(ctx, &models.User{
			Email:    email,
			FullName: NameFromEmail(email),
			Role:     models.RoleCandidate,
			Jobs:     []string{jobID},
		})
	}
	if u.AddJob(jobID) {
		return s.users.UpdateUser(ctx, u)
	}
	return nil
}

func (s *IdentityService) lookup(ctx context.Context, email string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, nil
	}
	u, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", email, err)
	}
	return u, nil
}

// NameFromEmail turns "jane_doe@x" into "Jane Doe", or "Candidate" when the
// local part is empty.
func NameFromEmail(email string) string {
	if name := util.TitleName(util.NameWords(email)); name != "" {
		return name
	}
	return "Candidate"
}
