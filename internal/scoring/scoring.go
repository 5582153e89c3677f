package scoring

import (
	"context"

	"aicruit/internal/models"
)

// Breakdown keys written to a candidate's resume_breakdown.
const (
	BreakdownNonNegotiable = "Non-Negotiable Requirements"
	BreakdownNegotiable    = "Negotiable Requirements"
	BreakdownContinuity    = "Experience Continuity & Recency"

	notEvaluated = "Not evaluated"
)

// Client scores one resume against a job's evaluation criteria.
type Client interface {
	Evaluate(ctx context.Context, resumeRef string, criteria models.EvaluationCriteria) (*Evaluation, error)
	Health(ctx context.Context) error
	Name() string
}

// Evaluation is the normalized result of a scoring call. Score is nil when
// any of the three criterion scores could not be parsed.
type Evaluation struct {
	Score     *float64          `json:"score"`
	Breakdown map[string]string `json:"breakdown,omitempty"`
	Flags     []string          `json:"flags"`
	Identity  Identity          `json:"extracted_identity"`
}

// Identity is what the scorer could tell about who wrote the resume.
type Identity struct {
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Section is one scored criterion as returned by the scorer, e.g.
// {"score": "8/10", "description": "..."}.
type Section struct {
	Title       string `json:"-"`
	Score       string `json:"score"`
	Description string `json:"description"`
}

// PersonalInfo is the identity block a scorer may attach to its response.
type PersonalInfo struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// pipelineCriteria is the jd_json shape the scoring service expects.
func pipelineCriteria(c models.EvaluationCriteria) map[string][]string {
	nonNeg := c.NonNegotiable
	if nonNeg == nil {
		nonNeg = []string{}
	}
	neg := c.Additional
	if neg == nil {
		neg = []string{}
	}
	return map[string][]string{
		BreakdownNonNegotiable: nonNeg,
		BreakdownNegotiable:    neg,
	}
}
