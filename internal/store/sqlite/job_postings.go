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
)

const candidateColumns = `id, email, cv_link, cv_score, composite_score, resume_breakdown, flags, eval_retry_count, application_status, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row rowScanner) (models.Candidate, error) {
	var (
		c         models.Candidate
		score     sql.NullFloat64
		composite sql.NullFloat64
		breakdown sql.NullString
		flags     string
	)
	err := row.Scan(&c.ID, &c.Email, &c.CVLink, &score, &composite, &breakdown, &flags, &c.EvalRetryCount, &c.ApplicationStatus, &c.CreatedAt)
	if err != nil {
		return c, err
	}
	if score.Valid {
		c.Score = &score.Float64
	}
	if composite.Valid {
		c.CompositeScore = &composite.Float64
	}
	if breakdown.Valid && breakdown.String != "" {
		if err := json.Unmarshal([]byte(breakdown.String), &c.ResumeBreakdown); err != nil {
			return c, fmt.Errorf("decode breakdown for candidate %s: %w", c.ID, err)
		}
	}
	if err := json.Unmarshal([]byte(flags), &c.Flags); err != nil {
		return c, fmt.Errorf("decode flags for candidate %s: %w", c.ID, err)
	}
	if c.Flags == nil {
		c.Flags = []string{}
	}
	return c, nil
}

// encodeCandidateDocs serializes the JSON-typed columns of a candidate row.
func encodeCandidateDocs(c *models.Candidate) (flags string, breakdown any, err error) {
	f, err := json.Marshal(store.UniqueFlags(c.Flags))
	if err != nil {
		return "", nil, fmt.Errorf("encode flags: %w", err)
	}
	if c.ResumeBreakdown != nil {
		b, err := json.Marshal(c.ResumeBreakdown)
		if err != nil {
			return "", nil, fmt.Errorf("encode breakdown: %w", err)
		}
		breakdown = string(b)
	}
	return string(f), breakdown, nil
}

func candidateArgs(jobID string, position int, c *models.Candidate) ([]any, error) {
	flags, breakdown, err := encodeCandidateDocs(c)
	if err != nil {
		return nil, err
	}
	return []any{
		jobID, c.ID, position, c.Email, c.CVLink, nullFloat(c.Score), nullFloat(c.CompositeScore),
		breakdown, flags, c.EvalRetryCount, c.ApplicationStatus, c.CreatedAt,
	}, nil
}

const insertCandidate = `
	INSERT INTO candidates (job_id, id, position, email, cv_link, cv_score, composite_score, resume_breakdown, flags, eval_retry_count, application_status, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func (s *Store) CreateJobPosting(ctx context.Context, job *models.Job) error {
	store.PrepareJob(job)
	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now

	criteria, err := json.Marshal(job.Criteria)
	if err != nil {
		return fmt.Errorf("encode criteria: %w", err)
	}
	owners, err := json.Marshal(job.Owners)
	if err != nil {
		return fmt.Errorf("encode owners: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO job_postings (job_id, title, company, description, criteria, status, job_link, owners, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.JobID, job.Title, job.Company, job.Description, string(criteria),
		job.Status, job.JobLink, string(owners), job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("job posting %s already exists: %w", job.JobID, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert job posting: %w", err)
	}
	if err := insertCandidates(ctx, tx, job); err != nil {
		return err
	}
	return tx.Commit()
}

func insertCandidates(ctx context.Context, tx *sql.Tx, job *models.Job) error {
	for i := range job.Candidates {
		args, err := candidateArgs(job.JobID, i, &job.Candidates[i])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insertCandidate, args...); err != nil {
			return fmt.Errorf("failed to insert candidate %s: %w", job.Candidates[i].ID, err)
		}
	}
	return nil
}

func (s *Store) GetJobPosting(ctx context.Context, jobID string) (*models.Job, error) {
	return getJobPosting(ctx, s.db, jobID)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func getJobPosting(ctx context.Context, q querier, jobID string) (*models.Job, error) {
	job := &models.Job{}
	var criteria, owners string
	err := q.QueryRowContext(ctx, `
		SELECT job_id, title, company, description, criteria, status, job_link, owners, created_at, updated_at
		FROM job_postings WHERE job_id = ?`, jobID).Scan(
		&job.JobID, &job.Title, &job.Company, &job.Description, &criteria,
		&job.Status, &job.JobLink, &owners, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job posting %s: %w", jobID, err)
	}
	if err := json.Unmarshal([]byte(criteria), &job.Criteria); err != nil {
		return nil, fmt.Errorf("decode criteria for job %s: %w", jobID, err)
	}
	if err := json.Unmarshal([]byte(owners), &job.Owners); err != nil {
		return nil, fmt.Errorf("decode owners for job %s: %w", jobID, err)
	}

	rows, err := q.QueryContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE job_id = ? ORDER BY position`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates of job %s: %w", jobID, err)
	}
	defer rows.Close()
	job.Candidates = []models.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate row: %w", err)
		}
		job.Candidates = append(job.Candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidate rows: %w", err)
	}
	return job, nil
}

func (s *Store) ListJobPostings(ctx context.Context, limit, offset int) ([]*models.Job, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx, `SELECT job_id FROM job_postings ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query job postings: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan job posting id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job posting rows: %w", err)
	}

	jobs := make([]*models.Job, 0, len(ids))
	for _, id := range ids {
		job, err := s.GetJobPosting(ctx, id)
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (s *Store) AppendCandidate(ctx context.Context, jobID string, candidate *models.Candidate) (int, error) {
	store.PrepareCandidate(candidate)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return -1, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := touchJob(ctx, tx, jobID); err != nil {
		return -1, err
	}
	var next, count int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1, COUNT(*) FROM candidates WHERE job_id = ?`, jobID,
	).Scan(&next, &count)
	if err != nil {
		return -1, fmt.Errorf("failed to read candidate positions for job %s: %w", jobID, err)
	}
	args, err := candidateArgs(jobID, next, candidate)
	if err != nil {
		return -1, err
	}
	if _, err := tx.ExecContext(ctx, insertCandidate, args...); err != nil {
		if isUniqueViolation(err) {
			return -1, fmt.Errorf("candidate %s already exists in job %s: %w", candidate.ID, jobID, store.ErrDuplicate)
		}
		return -1, fmt.Errorf("failed to append candidate to job %s: %w", jobID, err)
	}
	if err := tx.Commit(); err != nil {
		return -1, fmt.Errorf("commit candidate append: %w", err)
	}
	return count, nil
}

// touchJob bumps updated_at and reports ErrNotFound for a missing job.
func touchJob(ctx context.Context, tx *sql.Tx, jobID string) error {
	res, err := tx.ExecContext(ctx, `UPDATE job_postings SET updated_at = ? WHERE job_id = ?`, time.Now().UTC(), jobID)
	if err != nil {
		return fmt.Errorf("failed to touch job posting %s: %w", jobID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job posting %s: %w", jobID, store.ErrNotFound)
	}
	return nil
}

// resolveCandidateID maps a reference to a sub-id. The positional form counts
// rows in position order, matching the order GetJobPosting returns.
func resolveCandidateID(ctx context.Context, tx *sql.Tx, jobID string, ref models.CandidateRef) (string, error) {
	var id string
	var err error
	if ref.ID != "" {
		err = tx.QueryRowContext(ctx, `SELECT id FROM candidates WHERE job_id = ? AND id = ?`, jobID, ref.ID).Scan(&id)
	} else if ref.Index >= 0 {
		err = tx.QueryRowContext(ctx, `SELECT id FROM candidates WHERE job_id = ? ORDER BY position LIMIT 1 OFFSET ?`, jobID, ref.Index).Scan(&id)
	} else {
		err = sql.ErrNoRows
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("candidate %s in job %s: %w", ref, jobID, store.ErrNotFound)
		}
		return "", fmt.Errorf("failed to resolve candidate %s in job %s: %w", ref, jobID, err)
	}
	return id, nil
}

// UpdateCandidate reads and rewrites a single candidate row inside one
// immediate transaction; rows of other candidates are never written.
func (s *Store) UpdateCandidate(ctx context.Context, jobID string, ref models.CandidateRef, update models.CandidateUpdate) error {
	if update.IsEmpty() {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := touchJob(ctx, tx, jobID); err != nil {
		return err
	}
	id, err := resolveCandidateID(ctx, tx, jobID, ref)
	if err != nil {
		return err
	}
	if update.ExclusiveEmail && update.Email != nil {
		if err := checkEmailUnclaimed(ctx, tx, jobID, id, *update.Email); err != nil {
			return err
		}
	}
	c, err := scanCandidate(tx.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE job_id = ? AND id = ?`, jobID, id))
	if err != nil {
		return fmt.Errorf("failed to load candidate %s: %w", id, err)
	}
	update.Apply(&c)

	flags, breakdown, err := encodeCandidateDocs(&c)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE candidates
		SET email = ?, cv_score = ?, composite_score = ?, resume_breakdown = ?, flags = ?, eval_retry_count = ?, application_status = ?
		WHERE job_id = ? AND id = ?`,
		c.Email, nullFloat(c.Score), nullFloat(c.CompositeScore), breakdown, flags, c.EvalRetryCount, c.ApplicationStatus, jobID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update candidate %s in job %s: %w", id, jobID, err)
	}
	return tx.Commit()
}

// checkEmailUnclaimed fails with ErrDuplicate when a candidate other than id
// holds email. The immediate transaction keeps the check and the write together.
func checkEmailUnclaimed(ctx context.Context, tx *sql.Tx, jobID, id, email string) error {
	var holder string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM candidates WHERE job_id = ? AND id <> ? AND lower(trim(email)) = ? LIMIT 1`,
		jobID, id, models.NormalizeEmail(email),
	).Scan(&holder)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check email claim in job %s: %w", jobID, err)
	default:
		return fmt.Errorf("email %s already held by candidate %s in job %s: %w", email, holder, jobID, store.ErrDuplicate)
	}
}

func (s *Store) RemoveCandidate(ctx context.Context, jobID, candidateID string) error {
	if candidateID == "" {
		return errors.New("candidate id is required for removal")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := touchJob(ctx, tx, jobID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM candidates WHERE job_id = ? AND id = ?`, jobID, candidateID)
	if err != nil {
		return fmt.Errorf("failed to remove candidate %s from job %s: %w", candidateID, jobID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("candidate %s in job %s: %w", candidateID, jobID, store.ErrNotFound)
	}
	return tx.Commit()
}

// SaveJobPosting replaces the job row and its whole candidate set.
func (s *Store) SaveJobPosting(ctx context.Context, job *models.Job) error {
	criteria, err := json.Marshal(job.Criteria)
	if err != nil {
		return fmt.Errorf("encode criteria: %w", err)
	}
	if job.Owners == nil {
		job.Owners = []string{}
	}
	owners, err := json.Marshal(job.Owners)
	if err != nil {
		return fmt.Errorf("encode owners: %w", err)
	}
	job.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE job_postings
		SET title = ?, company = ?, description = ?, criteria = ?, status = ?, job_link = ?, owners = ?, updated_at = ?
		WHERE job_id = ?`,
		job.Title, job.Company, job.Description, string(criteria), job.Status, job.JobLink, string(owners), job.UpdatedAt, job.JobID,
	)
	if err != nil {
		return fmt.Errorf("failed to save job posting %s: %w", job.JobID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job posting %s: %w", job.JobID, store.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM candidates WHERE job_id = ?`, job.JobID); err != nil {
		return fmt.Errorf("failed to clear candidates of job %s: %w", job.JobID, err)
	}
	for i := range job.Candidates {
		store.PrepareCandidate(&job.Candidates[i])
	}
	if err := insertCandidates(ctx, tx, job); err != nil {
		return err
	}
	return tx.Commit()
}
