package primary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"aicruit/internal/models"
	"aicruit/internal/store"

	"github.com/jackc/pgx/v5"
)

// --- Job Posting Store Implementation ---

const jobPostingColumns = `job_id, title, company, description, criteria, status, job_link, owners, candidates, created_at, updated_at`

func scanJobPosting(row pgx.Row) (*models.Job, error) {
	job := &models.Job{}
	var criteria, owners, candidates []byte
	err := row.Scan(
		&job.JobID, &job.Title, &job.Company, &job.Description, &criteria,
		&job.Status, &job.JobLink, &owners, &candidates, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(criteria, &job.Criteria); err != nil {
		return nil, fmt.Errorf("decode criteria for job %s: %w", job.JobID, err)
	}
	if err := json.Unmarshal(owners, &job.Owners); err != nil {
		return nil, fmt.Errorf("decode owners for job %s: %w", job.JobID, err)
	}
	if err := json.Unmarshal(candidates, &job.Candidates); err != nil {
		return nil, fmt.Errorf("decode candidates for job %s: %w", job.JobID, err)
	}
	if job.Candidates == nil {
		job.Candidates = []models.Candidate{}
	}
	return job, nil
}

func (s *StoreImpl) CreateJobPosting(ctx context.Context, job *models.Job) error {
	store.PrepareJob(job)
	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now

	criteria, owners, candidates, err := encodeJobDocuments(job)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO job_postings (` + jobPostingColumns + `)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8::jsonb, $9::jsonb, $10, $11)`
	_, err = s.db.Exec(ctx, query,
		job.JobID, job.Title, job.Company, job.Description, criteria,
		job.Status, job.JobLink, owners, candidates, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("job posting %s already exists: %w", job.JobID, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert job posting: %w", err)
	}
	return nil
}

func (s *StoreImpl) GetJobPosting(ctx context.Context, jobID string) (*models.Job, error) {
	query := `SELECT ` + jobPostingColumns + ` FROM job_postings WHERE job_id = $1`
	job, err := scanJobPosting(s.db.QueryRow(ctx, query, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job posting %s: %w", jobID, err)
	}
	return job, nil
}

func (s *StoreImpl) ListJobPostings(ctx context.Context, limit, offset int) ([]*models.Job, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + jobPostingColumns + ` FROM job_postings ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := s.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query job postings: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJobPosting(rows)
		if err != nil {
			return jobs, fmt.Errorf("failed to scan job posting row: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return jobs, fmt.Errorf("error iterating job posting rows: %w", err)
	}
	return jobs, nil
}

// AppendCandidate adds a candidate to the end of the job's list in one
// statement and returns its position.
func (s *StoreImpl) AppendCandidate(ctx context.Context, jobID string, candidate *models.Candidate) (int, error) {
	store.PrepareCandidate(candidate)
	doc, err := json.Marshal(candidate)
	if err != nil {
		return -1, fmt.Errorf("encode candidate: %w", err)
	}
	query := `
		UPDATE job_postings
		SET candidates = candidates || jsonb_build_array($2::jsonb), updated_at = now()
		WHERE job_id = $1
		RETURNING jsonb_array_length(candidates) - 1`
	var index int
	if err := s.db.QueryRow(ctx, query, jobID, string(doc)).Scan(&index); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return -1, fmt.Errorf("job posting %s: %w", jobID, store.ErrNotFound)
		}
		return -1, fmt.Errorf("failed to append candidate to job %s: %w", jobID, err)
	}
	return index, nil
}

// candidateMatch selects the target array element: by sub-id when $2 is set,
// otherwise by zero-based position $3.
const candidateMatch = `(CASE WHEN $2::text <> '' THEN elem->>'id' = $2::text ELSE ord - 1 = $3::int END)`

// candidateExists guards the UPDATE so a missing candidate affects no rows.
const candidateExists = `(CASE WHEN $2::text <> ''
		THEN jp.candidates @> jsonb_build_array(jsonb_build_object('id', $2::text))
		ELSE $3::int >= 0 AND jsonb_array_length(jp.candidates) > $3::int END)`

// flagsOf reads an element's flag array, treating a missing or null value as empty.
const flagsOf = `(CASE jsonb_typeof(elem->'flags') WHEN 'array' THEN elem->'flags' ELSE '[]'::jsonb END)`

// emailUnclaimed guards an exclusive email claim: no element other than the
// target may hold the normalized address $7. An empty $7 disables the guard.
const emailUnclaimed = `($7::text = '' OR NOT EXISTS (
		SELECT 1 FROM jsonb_array_elements(jp.candidates) WITH ORDINALITY AS t(elem, ord)
		WHERE NOT ` + candidateMatch + `
			AND lower(trim(COALESCE(elem->>'email', ''))) = $7::text))`

// UpdateCandidate rewrites only the addressed element inside a single UPDATE.
// Under READ COMMITTED a concurrent writer on the same row blocks this
// statement, which then re-reads the committed candidates array before
// applying its patch, so updates to different candidates never overwrite each
// other.
func (s *StoreImpl) UpdateCandidate(ctx context.Context, jobID string, ref models.CandidateRef, update models.CandidateUpdate) error {
	if update.IsEmpty() {
		return nil
	}
	patch, err := json.Marshal(store.CandidateFieldSet(update))
	if err != nil {
		return fmt.Errorf("encode candidate patch: %w", err)
	}
	flags, err := json.Marshal(store.UniqueFlags(update.AddFlags))
	if err != nil {
		return fmt.Errorf("encode candidate flags: %w", err)
	}

	query := `
		UPDATE job_postings jp
		SET candidates = (
			SELECT jsonb_agg(
				CASE WHEN ` + candidateMatch + ` THEN
					jsonb_set(
						jsonb_set(elem || $4::jsonb, '{eval_retry_count}',
							to_jsonb(COALESCE((elem->>'eval_retry_count')::int, 0) + $5::int)),
						'{flags}',
						` + flagsOf + ` || COALESCE((
							SELECT jsonb_agg(nf)
							FROM jsonb_array_elements_text($6::jsonb) AS nfs(nf)
							WHERE NOT (` + flagsOf + ` ? nf)
						), '[]'::jsonb)
					)
				ELSE elem END
				ORDER BY ord)
			FROM jsonb_array_elements(jp.candidates) WITH ORDINALITY AS t(elem, ord)
		),
		updated_at = now()
		WHERE jp.job_id = $1 AND ` + candidateExists + ` AND ` + emailUnclaimed

	claim := ""
	if update.ExclusiveEmail && update.Email != nil {
		claim = models.NormalizeEmail(*update.Email)
	}
	cmdTag, err := s.db.Exec(ctx, query, jobID, ref.ID, ref.Index, string(patch), update.IncRetryCount, string(flags), claim)
	if err != nil {
		return fmt.Errorf("failed to update candidate %s in job %s: %w", ref, jobID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		if claim != "" {
			held, herr := s.emailHeldByOther(ctx, jobID, ref, claim)
			if herr != nil {
				return herr
			}
			if held {
				return fmt.Errorf("email %s already held by another candidate in job %s: %w", claim, jobID, store.ErrDuplicate)
			}
		}
		return fmt.Errorf("candidate %s in job %s: %w", ref, jobID, store.ErrNotFound)
	}
	return nil
}

// emailHeldByOther reports whether a candidate other than ref holds email.
func (s *StoreImpl) emailHeldByOther(ctx context.Context, jobID string, ref models.CandidateRef, email string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM job_postings jp, jsonb_array_elements(jp.candidates) WITH ORDINALITY AS t(elem, ord)
			WHERE jp.job_id = $1 AND NOT ` + candidateMatch + `
				AND lower(trim(COALESCE(elem->>'email', ''))) = $4::text
		)`
	var held bool
	if err := s.db.QueryRow(ctx, query, jobID, ref.ID, ref.Index, email).Scan(&held); err != nil {
		return false, fmt.Errorf("failed to check email claim in job %s: %w", jobID, err)
	}
	return held, nil
}

// RemoveCandidate drops the candidate with the given sub-id from the job.
func (s *StoreImpl) RemoveCandidate(ctx context.Context, jobID, candidateID string) error {
	if candidateID == "" {
		return errors.New("candidate id is required for removal")
	}
	query := `
		UPDATE job_postings jp
		SET candidates = COALESCE((
			SELECT jsonb_agg(elem ORDER BY ord)
			FROM jsonb_array_elements(jp.candidates) WITH ORDINALITY AS t(elem, ord)
			WHERE elem->>'id' IS DISTINCT FROM $2::text
		), '[]'::jsonb),
		updated_at = now()
		WHERE jp.job_id = $1 AND jp.candidates @> jsonb_build_array(jsonb_build_object('id', $2::text))`
	cmdTag, err := s.db.Exec(ctx, query, jobID, candidateID)
	if err != nil {
		return fmt.Errorf("failed to remove candidate %s from job %s: %w", candidateID, jobID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("candidate %s in job %s: %w", candidateID, jobID, store.ErrNotFound)
	}
	return nil
}

// SaveJobPosting replaces the stored document with job. Callers must have
// loaded job immediately before; concurrent changes to other candidates made
// since that read are overwritten.
func (s *StoreImpl) SaveJobPosting(ctx context.Context, job *models.Job) error {
	criteria, owners, candidates, err := encodeJobDocuments(job)
	if err != nil {
		return err
	}
	job.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE job_postings
		SET title = $2, company = $3, description = $4, criteria = $5::jsonb, status = $6,
		    job_link = $7, owners = $8::jsonb, candidates = $9::jsonb, updated_at = $10
		WHERE job_id = $1`
	cmdTag, err := s.db.Exec(ctx, query,
		job.JobID, job.Title, job.Company, job.Description, criteria,
		job.Status, job.JobLink, owners, candidates, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save job posting %s: %w", job.JobID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("job posting %s: %w", job.JobID, store.ErrNotFound)
	}
	return nil
}

func encodeJobDocuments(job *models.Job) (criteria, owners, candidates string, err error) {
	parts := make([]string, 3)
	for i, v := range []any{job.Criteria, job.Owners, job.Candidates} {
		b, mErr := json.Marshal(v)
		if mErr != nil {
			return "", "", "", fmt.Errorf("encode job posting %s: %w", job.JobID, mErr)
		}
		parts[i] = string(b)
	}
	if strings.TrimSpace(parts[1]) == "null" {
		parts[1] = "[]"
	}
	if strings.TrimSpace(parts[2]) == "null" {
		parts[2] = "[]"
	}
	return parts[0], parts[1], parts[2], nil
}

// Ensure StoreImpl satisfies the JobPostingStore interface
var _ store.JobPostingStore = (*StoreImpl)(nil)
