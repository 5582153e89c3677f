// Package memory is an in-process store backend used by tests and local
// development. Every method copies data in and out so callers never share
// memory with the store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"aicruit/internal/models"
	"aicruit/internal/store"

	"github.com/google/uuid"
)

// Store keeps job postings, users and the job ledger in maps guarded by one mutex.
type Store struct {
	mu           sync.Mutex
	jobs         map[string]*models.Job
	users        map[string]*models.User // keyed by normalized email
	ledger       []*models.BackgroundJob
	nextLedgerID int64
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		jobs:  make(map[string]*models.Job),
		users: make(map[string]*models.User),
	}
}

func (s *Store) Ping(ctx context.Context) error    { return nil }
func (s *Store) Migrate(ctx context.Context) error { return nil }
func (s *Store) Close() error                      { return nil }

// --- Job postings ---

func (s *Store) CreateJobPosting(ctx context.Context, job *models.Job) error {
	store.PrepareJob(job)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.JobID]; ok {
		return fmt.Errorf("job posting %s already exists: %w", job.JobID, store.ErrDuplicate)
	}
	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now
	s.jobs[job.JobID] = cloneJob(job)
	return nil
}

func (s *Store) GetJobPosting(ctx context.Context, jobID string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneJob(job), nil
}

func (s *Store) ListJobPostings(ctx context.Context, limit, offset int) ([]*models.Job, error) {
	s.mu.Lock()
	all := make([]*models.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		all = append(all, cloneJob(j))
	}
	s.mu.Unlock()

	sort.Slice(all, func(a, b int) bool { return all[a].CreatedAt.After(all[b].CreatedAt) })
	return paginate(all, limit, offset), nil
}

func (s *Store) AppendCandidate(ctx context.Context, jobID string, candidate *models.Candidate) (int, error) {
	store.PrepareCandidate(candidate)
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return -1, fmt.Errorf("job posting %s: %w", jobID, store.ErrNotFound)
	}
	job.Candidates = append(job.Candidates, cloneCandidate(*candidate))
	job.UpdatedAt = time.Now().UTC()
	return len(job.Candidates) - 1, nil
}

func (s *Store) UpdateCandidate(ctx context.Context, jobID string, ref models.CandidateRef, update models.CandidateUpdate) error {
	if update.IsEmpty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("job posting %s: %w", jobID, store.ErrNotFound)
	}
	c, _ := job.FindCandidate(ref)
	if c == nil {
		return fmt.Errorf("candidate %s in job %s: %w", ref, jobID, store.ErrNotFound)
	}
	if update.ExclusiveEmail && update.Email != nil {
		if other := job.CandidateWithEmail(*update.Email, c.ID); other != nil {
			return fmt.Errorf("email %s already held by candidate %s in job %s: %w", *update.Email, other.ID, jobID, store.ErrDuplicate)
		}
	}
	update.Apply(c)
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) RemoveCandidate(ctx context.Context, jobID, candidateID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("job posting %s: %w", jobID, store.ErrNotFound)
	}
	i := job.CandidateIndex(candidateID)
	if candidateID == "" || i < 0 {
		return fmt.Errorf("candidate %s in job %s: %w", candidateID, jobID, store.ErrNotFound)
	}
	job.Candidates = append(job.Candidates[:i], job.Candidates[i+1:]...)
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) SaveJobPosting(ctx context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.JobID]; !ok {
		return fmt.Errorf("job posting %s: %w", job.JobID, store.ErrNotFound)
	}
	job.UpdatedAt = time.Now().UTC()
	s.jobs[job.JobID] = cloneJob(job)
	return nil
}

// --- Users ---

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[models.NormalizeEmail(email)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	key := models.NormalizeEmail(user.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[key]; ok {
		return fmt.Errorf("user with email '%s' already exists: %w", user.Email, store.ErrDuplicate)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Jobs == nil {
		user.Jobs = []string{}
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[key] = cloneUser(user)
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	oldKey := ""
	for k, u := range s.users {
		if u.ID == user.ID {
			oldKey = k
			break
		}
	}
	if oldKey == "" {
		return fmt.Errorf("user %s: %w", user.ID, store.ErrNotFound)
	}
	newKey := models.NormalizeEmail(user.Email)
	if other, ok := s.users[newKey]; ok && other.ID != user.ID {
		return fmt.Errorf("user with email '%s' already exists: %w", user.Email, store.ErrDuplicate)
	}
	delete(s.users, oldKey)
	user.UpdatedAt = time.Now().UTC()
	s.users[newKey] = cloneUser(user)
	return nil
}

func (s *Store) DeleteUserByEmail(ctx context.Context, email string) error {
	key := models.NormalizeEmail(email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[key]; !ok {
		return fmt.Errorf("user '%s': %w", email, store.ErrNotFound)
	}
	delete(s.users, key)
	return nil
}

// --- Job ledger ---

func (s *Store) RecordJobEnqueue(ctx context.Context, params store.JobRecordParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.ledger {
		if j.TaskID == params.TaskID {
			return nil
		}
	}
	s.nextLedgerID++
	now := time.Now().UTC()
	rec := &models.BackgroundJob{
		ID:        s.nextLedgerID,
		TaskID:    params.TaskID,
		TaskType:  params.TaskType,
		Payload:   append([]byte(nil), params.Payload...),
		Queue:     params.Queue,
		Status:    params.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if params.RelatedEntityType != "" {
		t := params.RelatedEntityType
		rec.RelatedEntityType = &t
	}
	if params.RelatedEntityID != "" {
		id := params.RelatedEntityID
		rec.RelatedEntityID = &id
	}
	s.ledger = append(s.ledger, rec)
	return nil
}

func (s *Store) UpdateJobStatus(ctx context.Context, taskID uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.ledger {
		if j.TaskID == taskID {
			j.Status = status
			j.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return fmt.Errorf("task %s not found to update status: %w", taskID, store.ErrNotFound)
}

func (s *Store) ListBackgroundJobs(ctx context.Context, limit, offset int) ([]*models.BackgroundJob, error) {
	s.mu.Lock()
	out := make([]*models.BackgroundJob, 0, len(s.ledger))
	for i := len(s.ledger) - 1; i >= 0; i-- {
		cp := *s.ledger[i]
		out = append(out, &cp)
	}
	s.mu.Unlock()
	return paginate(out, limit, offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
