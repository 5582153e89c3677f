package models

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EvaluationCriteria is the pair of requirement lists a resume is scored against.
type EvaluationCriteria struct {
	NonNegotiable []string `json:"non_negotiable" bson:"non_negotiable"`
	Additional    []string `json:"additional" bson:"additional"`
}

// Job is a posted role. It exclusively owns its Candidates.
type Job struct {
	JobID       string             `json:"job_id" bson:"job_id"`
	Title       string             `json:"title" bson:"title"`
	Company     string             `json:"company" bson:"company"`
	Description string             `json:"description" bson:"description"`
	Criteria    EvaluationCriteria `json:"evaluation_criteria" bson:"evaluation_criteria"`
	Status      string             `json:"status" bson:"status"`
	JobLink     string             `json:"job_link,omitempty" bson:"job_link,omitempty"`
	Owners      []string           `json:"owners,omitempty" bson:"owners,omitempty"`
	Candidates  []Candidate        `json:"candidates" bson:"candidates"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// Candidate is one applicant's submission embedded in a Job.
type Candidate struct {
	ID                string            `json:"id" bson:"id"`
	Email             string            `json:"email" bson:"email"`
	CVLink            string            `json:"cv_link" bson:"cv_link"`
	Score             *float64          `json:"cv_score" bson:"cv_score"`
	CompositeScore    *float64          `json:"composite_score" bson:"composite_score"`
	ResumeBreakdown   map[string]string `json:"resume_breakdown,omitempty" bson:"resume_breakdown,omitempty"`
	Flags             []string          `json:"flags" bson:"flags"`
	EvalRetryCount    int               `json:"eval_retry_count" bson:"eval_retry_count"`
	ApplicationStatus string            `json:"application_status" bson:"application_status"`
	CreatedAt         time.Time         `json:"created_at" bson:"created_at"`
}

// HasFlag reports whether the flag set contains flag.
func (c *Candidate) HasFlag(flag string) bool {
	for _, f := range c.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// AddFlags merges flags into the candidate's flag set, keeping it free of repeats.
func (c *Candidate) AddFlags(flags ...string) {
	for _, f := range flags {
		if f != "" && !c.HasFlag(f) {
			c.Flags = append(c.Flags, f)
		}
	}
}

// CandidateIndex returns the position of the candidate with the given sub-id, or -1.
func (j *Job) CandidateIndex(candidateID string) int {
	for i := range j.Candidates {
		if j.Candidates[i].ID == candidateID {
			return i
		}
	}
	return -1
}

// FindCandidate locates a candidate by reference. A sub-id always wins over the
// positional index; the index is only consulted when no sub-id is given.
func (j *Job) FindCandidate(ref CandidateRef) (*Candidate, int) {
	if ref.ID != "" {
		i := j.CandidateIndex(ref.ID)
		if i < 0 {
			return nil, -1
		}
		return &j.Candidates[i], i
	}
	if ref.Index >= 0 && ref.Index < len(j.Candidates) {
		return &j.Candidates[ref.Index], ref.Index
	}
	return nil, -1
}

// CandidateWithEmail returns a candidate other than the one with sub-id
// exceptID whose normalized email equals email, or nil.
func (j *Job) CandidateWithEmail(email, exceptID string) *Candidate {
	email = NormalizeEmail(email)
	if email == "" {
		return nil
	}
	for i := range j.Candidates {
		c := &j.Candidates[i]
		if c.ID != exceptID && NormalizeEmail(c.Email) == email {
			return c
		}
	}
	return nil
}

// CandidateRef addresses a candidate inside a Job. Index is a last resort: it
// shifts when candidates are inserted or removed concurrently.
type CandidateRef struct {
	ID    string
	Index int
}

// ByID builds a reference that addresses a candidate only by its sub-id.
func ByID(id string) CandidateRef {
	return CandidateRef{ID: id, Index: -1}
}

func (r CandidateRef) String() string {
	if r.ID != "" {
		return "id:" + r.ID
	}
	return "index:" + strconv.Itoa(r.Index)
}

// CandidateUpdate names the fields an atomic per-candidate update touches.
// Nil pointers and empty slices leave the stored value alone.
type CandidateUpdate struct {
	Score             *float64
	CompositeScore    *float64
	ResumeBreakdown   map[string]string
	Email             *string
	ApplicationStatus *string
	AddFlags          []string
	IncRetryCount     int

	// ExclusiveEmail makes Email a claim: the update fails with the store's
	// duplicate error when another candidate of the job already holds the
	// normalized address. It needs a reference by sub-id.
	ExclusiveEmail bool
}

// IsEmpty reports whether the update would change nothing.
func (u CandidateUpdate) IsEmpty() bool {
	return u.Score == nil && u.CompositeScore == nil && u.ResumeBreakdown == nil &&
		u.Email == nil && u.ApplicationStatus == nil && len(u.AddFlags) == 0 && u.IncRetryCount == 0
}

// Apply performs the update on an in-memory candidate. Store backends that
// cannot express the update natively use this on a locked copy.
func (u CandidateUpdate) Apply(c *Candidate) {
	if u.Score != nil {
		v := *u.Score
		c.Score = &v
	}
	if u.CompositeScore != nil {
		v := *u.CompositeScore
		c.CompositeScore = &v
	}
	if u.ResumeBreakdown != nil {
		c.ResumeBreakdown = make(map[string]string, len(u.ResumeBreakdown))
		for k, v := range u.ResumeBreakdown {
			c.ResumeBreakdown[k] = v
		}
	}
	if u.Email != nil {
		c.Email = *u.Email
	}
	if u.ApplicationStatus != nil {
		c.ApplicationStatus = *u.ApplicationStatus
	}
	c.AddFlags(u.AddFlags...)
	c.EvalRetryCount += u.IncRetryCount
}

// User is the account record a candidate email resolves to.
type User struct {
	ID                 string    `json:"id" bson:"id"`
	Email              string    `json:"email" bson:"email"`
	FullName           string    `json:"full_name" bson:"full_name"`
	Role               string    `json:"role" bson:"role"`
	Jobs               []string  `json:"jobs" bson:"jobs"`
	InvitationAccepted bool      `json:"invitation_accepted" bson:"invitation_accepted"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" bson:"updated_at"`
}

// AddJob appends jobID to the user's job list if it is not already present.
func (u *User) AddJob(jobID string) bool {
	for _, j := range u.Jobs {
		if j == jobID {
			return false
		}
	}
	u.Jobs = append(u.Jobs, jobID)
	return true
}

// BackgroundJob mirrors the background_jobs ledger.
type BackgroundJob struct {
	ID                int64           `db:"id" json:"id"`
	TaskID            uuid.UUID       `db:"task_id" json:"task_id"` // Asynq Task ID
	TaskType          string          `db:"task_type" json:"task_type"`
	Payload           json.RawMessage `db:"payload" json:"payload"`
	Queue             string          `db:"queue" json:"queue"`
	Status            string          `db:"status" json:"status"`
	RelatedEntityType *string         `db:"related_entity_type" json:"related_entity_type,omitempty"`
	RelatedEntityID   *string         `db:"related_entity_id" json:"related_entity_id,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// NormalizeEmail lowercases and trims an address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
