package mongostore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"aicruit/internal/models"
	"aicruit/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) CreateJobPosting(ctx context.Context, job *models.Job) error {
	store.PrepareJob(job)
	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now
	if _, err := s.jobs().InsertOne(ctx, job); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("job posting %s already exists: %w", job.JobID, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to insert job posting: %w", err)
	}
	return nil
}

func (s *Store) GetJobPosting(ctx context.Context, jobID string) (*models.Job, error) {
	job := &models.Job{}
	if err := s.jobs().FindOne(ctx, bson.M{"job_id": jobID}).Decode(job); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job posting %s: %w", jobID, err)
	}
	if job.Candidates == nil {
		job.Candidates = []models.Candidate{}
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
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit)).SetSkip(int64(offset))
	cur, err := s.jobs().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query job postings: %w", err)
	}
	var jobs []*models.Job
	if err := cur.All(ctx, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode job postings: %w", err)
	}
	return jobs, nil
}

func (s *Store) AppendCandidate(ctx context.Context, jobID string, candidate *models.Candidate) (int, error) {
	store.PrepareCandidate(candidate)
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"candidates.id": 1})
	update := bson.M{
		"$push": bson.M{"candidates": candidate},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	var after struct {
		Candidates []struct {
			ID string `bson:"id"`
		} `bson:"candidates"`
	}
	err := s.jobs().FindOneAndUpdate(ctx, bson.M{"job_id": jobID}, update, opts).Decode(&after)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return -1, fmt.Errorf("job posting %s: %w", jobID, store.ErrNotFound)
		}
		return -1, fmt.Errorf("failed to append candidate to job %s: %w", jobID, err)
	}
	for i := len(after.Candidates) - 1; i >= 0; i-- {
		if after.Candidates[i].ID == candidate.ID {
			return i, nil
		}
	}
	return len(after.Candidates) - 1, nil
}

// candidateTarget returns the filter that matches the job only while the
// addressed candidate exists, and the path prefix that addresses it.
func candidateTarget(jobID string, ref models.CandidateRef) (bson.M, string, error) {
	if ref.ID != "" {
		return bson.M{"job_id": jobID, "candidates.id": ref.ID}, "candidates.$.", nil
	}
	if ref.Index < 0 {
		return nil, "", fmt.Errorf("candidate reference %s has neither id nor index", ref)
	}
	pos := "candidates." + strconv.Itoa(ref.Index)
	return bson.M{"job_id": jobID, pos: bson.M{"$exists": true}}, pos + ".", nil
}

// emailMatch matches an element email equal to the normalized address,
// ignoring case and surrounding space.
func emailMatch(email string) bson.M {
	return bson.M{"$regex": "^\\s*" + regexp.QuoteMeta(models.NormalizeEmail(email)) + "\\s*$", "$options": "i"}
}

// UpdateCandidate issues one positional update; the server applies it to the
// matched array element only. An exclusive email claim adds a filter clause
// that no other element holds the address, so the check and the write are
// one document operation.
func (s *Store) UpdateCandidate(ctx context.Context, jobID string, ref models.CandidateRef, update models.CandidateUpdate) error {
	if update.IsEmpty() {
		return nil
	}
	if update.ExclusiveEmail && update.Email != nil {
		return s.claimCandidateEmail(ctx, jobID, ref, update)
	}
	filter, prefix, err := candidateTarget(jobID, ref)
	if err != nil {
		return err
	}

	res, err := s.jobs().UpdateOne(ctx, filter, candidateUpdateDoc(prefix, update))
	if err != nil {
		return fmt.Errorf("failed to update candidate %s in job %s: %w", ref, jobID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("candidate %s in job %s: %w", ref, jobID, store.ErrNotFound)
	}
	return nil
}

func candidateUpdateDoc(prefix string, update models.CandidateUpdate) bson.M {
	set := bson.M{"updated_at": time.Now().UTC()}
	for field, v := range store.CandidateFieldSet(update) {
		set[prefix+field] = v
	}
	doc := bson.M{"$set": set}
	if flags := store.UniqueFlags(update.AddFlags); len(flags) > 0 {
		doc["$addToSet"] = bson.M{prefix + store.FieldFlags: bson.M{"$each": flags}}
	}
	if update.IncRetryCount != 0 {
		doc["$inc"] = bson.M{prefix + store.FieldEvalRetryCount: update.IncRetryCount}
	}
	return doc
}

// claimCandidateEmail updates the candidate through an array filter instead of
// the positional operator, since the query carries a second condition on the
// candidates array.
func (s *Store) claimCandidateEmail(ctx context.Context, jobID string, ref models.CandidateRef, update models.CandidateUpdate) error {
	if ref.ID == "" {
		return fmt.Errorf("exclusive email claim on candidate %s needs a sub-id", ref)
	}
	filter := bson.M{
		"job_id":        jobID,
		"candidates.id": ref.ID,
		"candidates": bson.M{"$not": bson.M{"$elemMatch": bson.M{
			"id":    bson.M{"$ne": ref.ID},
			"email": emailMatch(*update.Email),
		}}},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"target.id": ref.ID}},
	})
	res, err := s.jobs().UpdateOne(ctx, filter, candidateUpdateDoc("candidates.$[target].", update), opts)
	if err != nil {
		return fmt.Errorf("failed to update candidate %s in job %s: %w", ref, jobID, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := s.jobs().CountDocuments(ctx, bson.M{"job_id": jobID, "candidates.id": ref.ID})
	if err != nil {
		return fmt.Errorf("failed to check candidate %s in job %s: %w", ref, jobID, err)
	}
	if n == 0 {
		return fmt.Errorf("candidate %s in job %s: %w", ref, jobID, store.ErrNotFound)
	}
	return fmt.Errorf("email %s already held by another candidate in job %s: %w", *update.Email, jobID, store.ErrDuplicate)
}

func (s *Store) RemoveCandidate(ctx context.Context, jobID, candidateID string) error {
	if candidateID == "" {
		return errors.New("candidate id is required for removal")
	}
	res, err := s.jobs().UpdateOne(ctx,
		bson.M{"job_id": jobID, "candidates.id": candidateID},
		bson.M{
			"$pull": bson.M{"candidates": bson.M{"id": candidateID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to remove candidate %s from job %s: %w", candidateID, jobID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("candidate %s in job %s: %w", candidateID, jobID, store.ErrNotFound)
	}
	return nil
}

// SaveJobPosting replaces the whole document.
func (s *Store) SaveJobPosting(ctx context.Context, job *models.Job) error {
	job.UpdatedAt = time.Now().UTC()
	for i := range job.Candidates {
		store.PrepareCandidate(&job.Candidates[i])
	}
	res, err := s.jobs().ReplaceOne(ctx, bson.M{"job_id": job.JobID}, job)
	if err != nil {
		return fmt.Errorf("failed to save job posting %s: %w", job.JobID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("job posting %s: %w", job.JobID, store.ErrNotFound)
	}
	return nil
}
