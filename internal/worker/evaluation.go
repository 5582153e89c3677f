package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aicruit/internal/config"
	"aicruit/internal/models"
	"aicruit/internal/notify"
	"aicruit/internal/scoring"
	"aicruit/internal/services"
	"aicruit/internal/store"
	"aicruit/internal/tasks"

	log "github.com/sirupsen/logrus"
)

// Requeuer places a follow-up evaluation task on the queue.
type Requeuer interface {
	EnqueueResumeEvaluation(ctx context.Context, payload tasks.EvaluationPayload, delay time.Duration) (string, error)
}

// IdentityReconciler applies an extracted identity to user accounts and
// returns the email the candidate should carry, or "" to keep the current one.
type IdentityReconciler interface {
	Reconcile(ctx context.Context, jobID, currentEmail, name, email string) (string, error)
}

// Deps are the collaborators of a Processor.
type Deps struct {
	Jobs     store.JobPostingStore
	Scorer   scoring.Client
	Identity IdentityReconciler
	Requeuer Requeuer
	Notifier notify.Notifier
}

// Processor runs the evaluation of one queued candidate resume.
type Processor struct {
	jobs     store.JobPostingStore
	scorer   scoring.Client
	identity IdentityReconciler
	requeuer Requeuer
	notifier notify.Notifier
	cfg      config.EvaluationConfig
}

func NewProcessor(deps Deps, cfg config.EvaluationConfig) *Processor {
	n := deps.Notifier
	if n == nil {
		n = notify.Noop{}
	}
	return &Processor{
		jobs:     deps.Jobs,
		scorer:   deps.Scorer,
		identity: deps.Identity,
		requeuer: deps.Requeuer,
		notifier: n,
		cfg:      cfg,
	}
}

// Process evaluates the candidate a task points at. Every step re-reads what
// it needs from the store, so a task may be retried from the start at any
// point. A failed task leaves the candidate flagged EVALUATION_FAILED.
func (p *Processor) Process(ctx context.Context, payload tasks.EvaluationPayload) (Outcome, error) {
	logger := log.WithFields(log.Fields{
		"job_id":        payload.JobID,
		"candidate":     payload.Ref().String(),
		"requeue_count": payload.RequeueCount,
	})

	ref := payload.Ref()
	outcome, err := p.process(ctx, payload, &ref, logger)
	if err != nil {
		logger.WithError(err).Error("Resume evaluation failed")
		p.markFailed(ctx, payload.JobID, ref, logger)
		return "", err
	}
	logger.WithField("outcome", outcome).Info("Resume evaluation finished")
	return outcome, nil
}

// process does the work of Process. Once the candidate is found, *ref is
// narrowed to its sub-id so later writes never depend on its position.
func (p *Processor) process(ctx context.Context, payload tasks.EvaluationPayload, ref *models.CandidateRef, logger *log.Entry) (Outcome, error) {
	job, cand, err := p.fetch(ctx, payload.JobID, *ref)
	if err != nil {
		return "", err
	}
	if cand.ID != "" {
		*ref = models.ByID(cand.ID)
	}
	logger = logger.WithField("candidate_id", cand.ID)

	eval, err := p.score(ctx, cand.CVLink, job.Criteria)
	if err != nil {
		return "", err
	}

	name := eval.Identity.FullName
	email := models.NormalizeEmail(eval.Identity.Email)
	placeholder := p.cfg.IsPlaceholderEmail(email)

	if email != "" && !placeholder {
		if outcome, handled, err := p.resolveDuplicate(ctx, payload.JobID, cand, *ref, email, logger); handled || err != nil {
			return outcome, err
		}
	}

	newEmail := ""
	if p.identity != nil {
		newEmail, err = p.identity.Reconcile(ctx, payload.JobID, cand.Email, name, email)
		if err != nil {
			logger.WithError(err).Warn("Identity reconciliation failed, keeping candidate email")
			newEmail = ""
		}
	}
	if p.cfg.IsPlaceholderEmail(newEmail) {
		newEmail = ""
	}

	incomplete := eval.Score == nil || name == "" || email == "" || placeholder
	var flags []string
	if incomplete {
		if payload.RequeueCount < p.cfg.MaxRequeues {
			return p.requeue(ctx, payload, cand, *ref, newEmail, logger)
		}
		logger.Warn("Requeue budget exhausted, committing partial evaluation")
		flags = append(flags, models.FlagEvaluationFailed)
	}

	status := models.StatusCVProcessed
	update := models.CandidateUpdate{
		Score:             eval.Score,
		CompositeScore:    eval.Score,
		ResumeBreakdown:   eval.Breakdown,
		ApplicationStatus: &status,
		AddFlags:          flags,
	}
	if newEmail != "" {
		update.Email = &newEmail
		update.ExclusiveEmail = ref.ID != ""
	}
	err = p.commit(ctx, payload.JobID, *ref, update, logger)
	if errors.Is(err, store.ErrDuplicate) {
		// Another candidate claimed the address after the duplicate check.
		return p.removeDuplicate(ctx, payload.JobID, cand, *ref, logger.WithField("email", newEmail))
	}
	if err != nil {
		return "", err
	}

	if name != "" && email != "" && !placeholder && p.cfg.IsInternalRole(payload.SubmitterRole) {
		p.notifyShortlisted(ctx, job, name, email, logger)
	}
	return OutcomeCompleted, nil
}

// fetch loads the job and the candidate, waiting out store visibility lag:
// a task can be delivered before the submitting write is readable.
func (p *Processor) fetch(ctx context.Context, jobID string, ref models.CandidateRef) (*models.Job, *models.Candidate, error) {
	var job *models.Job
	var cand *models.Candidate

	strategy := services.SimpleRetryStrategy{MaxAttempts: p.cfg.FetchRetries, BaseDelay: p.cfg.FetchBaseDelay}
	err := services.Retry(ctx, strategy, isNotFound, func(ctx context.Context) error {
		j, err := p.jobs.GetJobPosting(ctx, jobID)
		if err != nil {
			return fmt.Errorf("job posting %s: %w", jobID, err)
		}
		c, _ := j.FindCandidate(ref)
		if c == nil {
			return fmt.Errorf("candidate %s in job %s: %w", ref, jobID, store.ErrNotFound)
		}
		job, cand = j, c
		return nil
	})
	switch {
	case err == nil:
		return job, cand, nil
	case isNotFound(err):
		return nil, nil, fatal("fetch candidate", err)
	default:
		return nil, nil, retryable("fetch candidate", err)
	}
}

func (p *Processor) score(ctx context.Context, resumeRef string, criteria models.EvaluationCriteria) (*scoring.Evaluation, error) {
	var eval *scoring.Evaluation
	strategy := services.SimpleRetryStrategy{MaxAttempts: p.cfg.ScoreRetries, BaseDelay: p.cfg.ScoreBaseDelay}
	attempt := 0
	err := services.Retry(ctx, strategy, nil, func(ctx context.Context) error {
		attempt++
		e, err := p.scorer.Evaluate(ctx, resumeRef, criteria)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{"attempt": attempt, "scorer": p.scorer.Name()}).Warn("Scoring attempt failed")
			return err
		}
		eval = e
		return nil
	})
	if err != nil {
		return nil, retryable("score resume", fmt.Errorf("%w: %w", models.ErrScoringFailed, err))
	}
	return eval, nil
}

// resolveDuplicate removes the candidate when another candidate of the same
// job already carries email. handled is true when the task ends here.
func (p *Processor) resolveDuplicate(ctx context.Context, jobID string, cand *models.Candidate, ref models.CandidateRef, email string, logger *log.Entry) (Outcome, bool, error) {
	job, err := p.jobs.GetJobPosting(ctx, jobID)
	if err != nil {
		logger.WithError(err).Warn("Duplicate check skipped: job reload failed")
		return "", false, nil
	}

	dup := job.CandidateWithEmail(email, cand.ID)
	if dup == nil {
		return "", false, nil
	}
	outcome, err := p.removeDuplicate(ctx, jobID, cand, ref, logger.WithFields(log.Fields{"email": email, "kept_candidate_id": dup.ID}))
	return outcome, true, err
}

// removeDuplicate drops cand from the job, or marks it skipped when it cannot
// be removed.
func (p *Processor) removeDuplicate(ctx context.Context, jobID string, cand *models.Candidate, ref models.CandidateRef, logger *log.Entry) (Outcome, error) {
	var err error
	if cand.ID != "" {
		err = p.jobs.RemoveCandidate(ctx, jobID, cand.ID)
		if err == nil || errors.Is(err, store.ErrNotFound) {
			logger.Info("Removed duplicate candidate")
			return OutcomeRemovedDuplicate, nil
		}
	} else {
		err = errors.New("candidate has no sub-id")
	}
	logger.WithError(err).Warn("Failed to remove duplicate candidate, marking it skipped")

	status := models.StatusDuplicateSkipped
	err = p.jobs.UpdateCandidate(ctx, jobID, ref, models.CandidateUpdate{
		AddFlags:          []string{models.FlagDuplicateSkipped},
		ApplicationStatus: &status,
	})
	if err != nil {
		return "", retryable("mark duplicate skipped", err)
	}
	return OutcomeSkippedDuplicate, nil
}

// requeue records the incomplete attempt and schedules the next one. A
// reconciled email is written with the retry mark so the candidate keeps
// pointing at the account reconciliation moved.
func (p *Processor) requeue(ctx context.Context, payload tasks.EvaluationPayload, cand *models.Candidate, ref models.CandidateRef, newEmail string, logger *log.Entry) (Outcome, error) {
	update := models.CandidateUpdate{
		IncRetryCount: 1,
		AddFlags:      []string{models.FlagRequeued},
	}
	email := cand.Email
	if newEmail != "" {
		update.Email = &newEmail
		update.ExclusiveEmail = ref.ID != ""
		email = newEmail
	}
	err := p.jobs.UpdateCandidate(ctx, payload.JobID, ref, update)
	if errors.Is(err, store.ErrDuplicate) {
		return p.removeDuplicate(ctx, payload.JobID, cand, ref, logger.WithField("email", newEmail))
	}
	if errors.Is(err, store.ErrNotFound) {
		return "", fatal("mark requeued", err)
	}
	if err != nil {
		logger.WithError(err).Warn("Failed to record requeue on candidate")
	}

	next := payload
	next.RequeueCount++
	next.CandidateID = cand.ID
	next.Email = email
	delay := p.RequeueDelay(next.RequeueCount)

	taskID, err := p.requeuer.EnqueueResumeEvaluation(ctx, next, delay)
	if err != nil {
		return "", retryable("requeue evaluation", err)
	}
	logger.WithFields(log.Fields{"next_task_id": taskID, "delay": delay}).Info("Evaluation incomplete, requeued")
	return OutcomeRequeued, nil
}

// RequeueDelay is the wait before the n-th requeued attempt.
func (p *Processor) RequeueDelay(n int) time.Duration {
	d := p.cfg.RequeueDelayStep * time.Duration(n)
	if p.cfg.RequeueDelayCap > 0 && d > p.cfg.RequeueDelayCap {
		d = p.cfg.RequeueDelayCap
	}
	return d
}

// commit writes the evaluation through the atomic per-candidate path and
// only falls back to a whole-document save when that path errors. A lost
// email claim is returned as store.ErrDuplicate on either path.
func (p *Processor) commit(ctx context.Context, jobID string, ref models.CandidateRef, update models.CandidateUpdate, logger *log.Entry) error {
	err := p.jobs.UpdateCandidate(ctx, jobID, ref, update)
	if err == nil || errors.Is(err, store.ErrDuplicate) {
		return err
	}
	logger.WithError(err).Warn("Atomic candidate update failed, falling back to whole-document save")

	job, gerr := p.jobs.GetJobPosting(ctx, jobID)
	if gerr != nil {
		if isNotFound(gerr) {
			return fatal("commit evaluation", gerr)
		}
		return retryable("commit evaluation", gerr)
	}
	// The candidate may have moved since it was fetched.
	c, _ := job.FindCandidate(ref)
	if c == nil {
		return fatal("commit evaluation", fmt.Errorf("candidate %s in job %s: %w", ref, jobID, store.ErrNotFound))
	}
	if update.ExclusiveEmail {
		if other := job.CandidateWithEmail(*update.Email, c.ID); other != nil {
			return fmt.Errorf("email %s already held by candidate %s in job %s: %w", *update.Email, other.ID, jobID, store.ErrDuplicate)
		}
	}
	update.Apply(c)
	if err := p.jobs.SaveJobPosting(ctx, job); err != nil {
		return retryable("commit evaluation", err)
	}
	return nil
}

func (p *Processor) notifyShortlisted(ctx context.Context, job *models.Job, name, email string, logger *log.Entry) {
	err := p.notifier.NotifyShortlisted(ctx, notify.Shortlist{
		Email:    email,
		FullName: name,
		JobID:    job.JobID,
		JobTitle: job.Title,
		Company:  job.Company,
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to send shortlist email")
	}
}

func (p *Processor) markFailed(ctx context.Context, jobID string, ref models.CandidateRef, logger *log.Entry) {
	err := p.jobs.UpdateCandidate(ctx, jobID, ref, models.CandidateUpdate{
		AddFlags: []string{models.FlagEvaluationFailed},
	})
	if err != nil {
		logger.WithError(err).Debug("Could not flag candidate as failed")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
