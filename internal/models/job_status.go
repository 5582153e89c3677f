package models

/*
Status, flag and role constants for use throughout the codebase.
Centralizing these avoids magic strings.
*/

// Background job ledger statuses
const (
	JobStatusEnqueued  = "enqueued"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusRequeued  = "requeued"
	JobStatusFailed    = "failed"
)

// Job posting statuses
const (
	JobPostingOngoing = "Ongoing"
	JobPostingPaused  = "Paused"
	JobPostingEnded   = "Ended"
)

// Candidate application statuses, in pipeline order.
const (
	StatusCVProcessed            = "CV Processed"
	StatusShortlistedAIInterview = "Shortlisted For AI-Interview"
	StatusAIInterviewCompleted   = "AI-Interview Completed"
	StatusShortlistedHuman       = "Shortlisted For Human Interview"
	StatusHumanInterviewDone     = "Human Interview Completed"
	StatusAccepted               = "Accepted"
	StatusRejected               = "Rejected"

	// StatusDuplicateSkipped freezes a duplicate submission that could not be removed.
	StatusDuplicateSkipped = "Duplicate - Skipped"
)

// Candidate flags. Flags form a set.
const (
	FlagRequeued          = "REQUEUED"
	FlagEvaluationFailed  = "EVALUATION_FAILED"
	FlagDuplicateSkipped  = "DUPLICATE_SKIPPED"
	FlagEvaluationPending = "EVALUATION_PENDING"
)

// User roles
const (
	RoleSuperAdmin      = "SuperAdmin"
	RoleRecruiter       = "Recruiter"
	RoleHiringAssistant = "HiringAssistant"
	RoleCandidate       = "Candidate"
)

// Related entity types recorded in the background job ledger.
const (
	EntityCandidate = "candidate"
)
