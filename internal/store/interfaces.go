package store

import (
	"context"
	"time"

	"aicruit/internal/models"
	"aicruit/internal/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// --- Job Client ---

type JobClient interface {
	// Enqueue includes related entity info for recording purposes
	Enqueue(ctx context.Context, task *asynq.Task, relatedEntityType, relatedEntityID string, opts ...asynq.Option) (*asynq.TaskInfo, error)
	// EnqueueResumeEvaluation places a new evaluation task on the evaluation queue
	// after delay and returns the task id.
	EnqueueResumeEvaluation(ctx context.Context, payload tasks.EvaluationPayload, delay time.Duration) (string, error)
	Close() error
}

// --- Job Posting Store ---

// JobPostingStore persists Jobs with their embedded Candidates.
//
// UpdateCandidate is the atomic path: it touches only the addressed candidate's
// fields in a single store operation and never rewrites the candidate list.
// With ExclusiveEmail set it fails with ErrDuplicate, changing nothing, when
// another candidate of the job already holds the normalized email.
// SaveJobPosting replaces the whole document and is subject to lost updates
// when another writer changed a different candidate since the caller's read.
type JobPostingStore interface {
	CreateJobPosting(ctx context.Context, job *models.Job) error
	GetJobPosting(ctx context.Context, jobID string) (*models.Job, error)
	ListJobPostings(ctx context.Context, limit, offset int) ([]*models.Job, error)
	AppendCandidate(ctx context.Context, jobID string, candidate *models.Candidate) (int, error)
	UpdateCandidate(ctx context.Context, jobID string, ref models.CandidateRef, update models.CandidateUpdate) error
	RemoveCandidate(ctx context.Context, jobID, candidateID string) error
	SaveJobPosting(ctx context.Context, job *models.Job) error

	Ping(ctx context.Context) error
}

// --- User Store ---

type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUserByEmail(ctx context.Context, email string) error
}

// --- Job Store ---

// JobRecordParams holds parameters for recording a job event.
type JobRecordParams struct {
	TaskID            uuid.UUID
	TaskType          string
	Payload           []byte
	Queue             string
	Status            string
	RelatedEntityType string // Optional: e.g., "candidate"
	RelatedEntityID   string // Optional: e.g., candidate sub-id
}

type JobStore interface {
	RecordJobEnqueue(ctx context.Context, params JobRecordParams) error
	UpdateJobStatus(ctx context.Context, taskID uuid.UUID, status string) error
	ListBackgroundJobs(ctx context.Context, limit, offset int) ([]*models.BackgroundJob, error)
}

// Store is the full set of persistence capabilities a backend provides.
type Store interface {
	JobPostingStore
	UserStore
	JobStore
	Migrate(ctx context.Context) error
	Close() error
}
