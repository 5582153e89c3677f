package memory

import "aicruit/internal/models"

func cloneJob(j *models.Job) *models.Job {
	cp := *j
	cp.Criteria.NonNegotiable = append([]string{}, j.Criteria.NonNegotiable...)
	cp.Criteria.Additional = append([]string{}, j.Criteria.Additional...)
	cp.Owners = append([]string{}, j.Owners...)
	cp.Candidates = make([]models.Candidate, len(j.Candidates))
	for i, c := range j.Candidates {
		cp.Candidates[i] = cloneCandidate(c)
	}
	return &cp
}

func cloneCandidate(c models.Candidate) models.Candidate {
	cp := c
	if c.Score != nil {
		v := *c.Score
		cp.Score = &v
	}
	if c.CompositeScore != nil {
		v := *c.CompositeScore
		cp.CompositeScore = &v
	}
	if c.ResumeBreakdown != nil {
		cp.ResumeBreakdown = make(map[string]string, len(c.ResumeBreakdown))
		for k, v := range c.ResumeBreakdown {
			cp.ResumeBreakdown[k] = v
		}
	}
	cp.Flags = append([]string{}, c.Flags...)
	return cp
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	cp.Jobs = append([]string{}, u.Jobs...)
	return &cp
}
