package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"aicruit/internal/models"

	log "github.com/sirupsen/logrus"
)

// DefaultEvaluationPrompt is the system prompt used when no prompt file is configured.
const DefaultEvaluationPrompt = `You are a recruiter evaluating a candidate's resume based on a job description. Evaluate the candidate's fit for the role based on the following criteria:

1. Fulfillment with Non-Negotiable Criteria in the Job Description (JD)
2. Fulfillment with Negotiable Criteria in the Job Description (JD)
3. Continuity and Recency of Experience with both Non-Negotiable and Negotiable Criteria in JD

For each of these criteria, assign a score out of 10 and provide a two-line justification for the score given.

Answer with exactly three blocks separated by a blank line, each in the form:
<number>. <criterion>: <score>/10
<justification>
`

var (
	sectionPattern = regexp.MustCompile(`(?s)^(\d+)\.\s*(.+?):\s*(\d+(?:\.\d+)?/10)\s*\n(.+)`)
	phonePattern   = regexp.MustCompile(`[\d\s\-\+\(\)]{10,}`)
)

// identityScanChars bounds how much of the resume is searched for an email.
const identityScanChars = 500

// LLMScorer scores resumes in-process: it extracts the resume text, asks a
// Completer for a numbered evaluation and parses the answer.
type LLMScorer struct {
	completer Completer
	fetcher   *ResumeFetcher
	prompt    string
}

// NewLLMScorer builds a scorer. An empty prompt selects DefaultEvaluationPrompt.
func NewLLMScorer(completer Completer, fetcher *ResumeFetcher, prompt string) *LLMScorer {
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultEvaluationPrompt
	}
	return &LLMScorer{completer: completer, fetcher: fetcher, prompt: prompt}
}

func (s *LLMScorer) Name() string {
	return s.completer.Name() + ":" + s.completer.ModelName()
}

func (s *LLMScorer) Evaluate(ctx context.Context, resumeRef string, criteria models.EvaluationCriteria) (*Evaluation, error) {
	text, err := s.fetcher.Fetch(ctx, resumeRef)
	if err != nil {
		return nil, err
	}

	jd, err := json.MarshalIndent(pipelineCriteria(criteria), "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal criteria: %w", err)
	}

	answer, err := s.completer.Complete(ctx, s.prompt, fmt.Sprintf("Resume: %s\nJob Description: %s", text, jd))
	if err != nil {
		return nil, err
	}

	sections := ParseNumberedSections(answer)
	if len(sections) == 0 {
		log.WithFields(log.Fields{"resume_ref": resumeRef, "scorer": s.Name()}).
			Warn("Evaluation answer had no parsable sections")
	}

	pi := PersonalInfoFromText(text)
	return ParseEvaluation(Response{Sections: sections, PersonalInfo: &pi, Raw: answer}), nil
}

// Health reports whether the scorer is usable. LLM providers have no cheap
// liveness call, so only the wiring is checked.
func (s *LLMScorer) Health(ctx context.Context) error {
	if s.completer == nil || s.fetcher == nil {
		return fmt.Errorf("llm scorer is not configured")
	}
	return nil
}

func (s *LLMScorer) Close() error {
	return s.completer.Close()
}

// ParseNumberedSections reads blocks of the form "1. Title: 8/10\nreason"
// separated by blank lines.
func ParseNumberedSections(text string) []Section {
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var out []Section
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		m := sectionPattern.FindStringSubmatch(block)
		if m == nil {
			continue
		}
		out = append(out, Section{
			Title:       strings.TrimSpace(m[2]),
			Score:       strings.TrimSpace(m[3]),
			Description: strings.TrimSpace(m[4]),
		})
	}
	return out
}

// PersonalInfoFromText guesses identity from resume text: the first email in
// its head and the first line, stripped of contact details, as the name.
func PersonalInfoFromText(text string) PersonalInfo {
	var pi PersonalInfo

	head := text
	if len(head) > identityScanChars {
		head = head[:identityScanChars]
	}
	pi.Email = emailPattern.FindString(head)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name := strings.TrimSpace(emailPattern.ReplaceAllString(line, ""))
		name = strings.TrimSpace(phonePattern.ReplaceAllString(name, ""))
		if len(name) > 2 && len(name) < 50 {
			pi.FullName = name
		}
		break
	}
	return pi
}

var _ Client = (*LLMScorer)(nil)
