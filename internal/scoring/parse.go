package scoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"aicruit/internal/util"
)

var (
	emailPattern  = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	numberPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)`)

	// Names as they tend to open a criterion description, e.g. "Sarah Faisal has ...".
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:has|holds|demonstrates|shows|lists|completed|worked|possesses|brings|excels)`),
		regexp.MustCompile(`(?i)candidate[,\s]+([A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,3})[,\s]`),
	}
	nameStopWords = []string{"The", "There", "This", "That", "Their", "These", "Data Science", "Computer Science", "Machine Learning"}
)

// Response is a scorer's raw answer: criterion sections in the order the
// scorer produced them, an optional identity block and the raw text used
// for fallback identity extraction.
type Response struct {
	Sections     []Section
	PersonalInfo *PersonalInfo
	Raw          string
}

// DecodeResponse reads an evaluation object such as
// {"Non-Negotiable Criteria": {"score": "8/10", ...}, "personal_info": {...}}.
// Key order is preserved; entries that are not objects are ignored.
func DecodeResponse(evaluation []byte, raw string) (Response, error) {
	resp := Response{Raw: raw}
	dec := json.NewDecoder(bytes.NewReader(evaluation))

	tok, err := dec.Token()
	if err != nil {
		return resp, fmt.Errorf("decode evaluation: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return resp, fmt.Errorf("decode evaluation: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return resp, fmt.Errorf("decode evaluation key: %w", err)
		}
		key, _ := keyTok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return resp, fmt.Errorf("decode evaluation value for %q: %w", key, err)
		}

		if key == "personal_info" {
			var pi PersonalInfo
			if json.Unmarshal(value, &pi) == nil {
				resp.PersonalInfo = &pi
			}
			continue
		}

		var aux struct {
			Score       any    `json:"score"`
			Description string `json:"description"`
		}
		if json.Unmarshal(value, &aux) != nil {
			continue
		}
		resp.Sections = append(resp.Sections, Section{
			Title:       key,
			Score:       scoreString(aux.Score),
			Description: aux.Description,
		})
	}
	return resp, nil
}

func scoreString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}

// ParseEvaluation turns a scorer response into an Evaluation. The composite
// score is round(nonNeg*0.5 + negotiable*0.3 + continuity*0.2) and is only
// set when all three criterion scores parse.
func ParseEvaluation(resp Response) *Evaluation {
	nonNeg := findSection(resp.Sections, []string{"non-negotiable criteria", "non-negotiable"}, nil)
	neg := findSection(resp.Sections, []string{"negotiable criteria", "negotiable"}, []string{"non-negotiable"})
	if neg == nil {
		neg = findSection(resp.Sections, []string{"additional criteria"}, nil)
	}
	cont := findSection(resp.Sections, []string{"continuity", "recency"}, nil)

	eval := &Evaluation{
		Flags: []string{},
		Breakdown: map[string]string{
			BreakdownNonNegotiable: formatSection(nonNeg),
			BreakdownNegotiable:    formatSection(neg),
			BreakdownContinuity:    formatSection(cont),
		},
	}

	a, aok := sectionScore(nonNeg)
	b, bok := sectionScore(neg)
	c, cok := sectionScore(cont)
	if aok && bok && cok {
		composite := math.Round(a*0.5 + b*0.3 + c*0.2)
		eval.Score = &composite
	}

	eval.Identity = extractIdentity(resp)
	return eval
}

// findSection returns the first section whose lower-cased title contains one
// of terms and none of exclude.
func findSection(sections []Section, terms, exclude []string) *Section {
	for i := range sections {
		title := strings.ToLower(sections[i].Title)
		if containsAny(title, exclude) {
			continue
		}
		if containsAny(title, terms) {
			return &sections[i]
		}
	}
	return nil
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func formatSection(s *Section) string {
	if s == nil {
		return notEvaluated
	}
	return fmt.Sprintf("Score: %s\n%s", s.Score, s.Description)
}

func sectionScore(s *Section) (float64, bool) {
	if s == nil {
		return 0, false
	}
	return parseScore(s.Score)
}

// parseScore reads the first number in s, so "7/10" yields 7.
func parseScore(s string) (float64, bool) {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func extractIdentity(resp Response) Identity {
	var id Identity
	if resp.PersonalInfo != nil {
		id.FullName = strings.TrimSpace(resp.PersonalInfo.FullName)
		id.Email = strings.TrimSpace(resp.PersonalInfo.Email)
	}
	if id.Email == "" {
		id.Email = emailPattern.FindString(resp.Raw)
	}
	if id.FullName == "" {
		id.FullName = nameFromDescriptions(resp.Sections)
	}
	if id.FullName == "" && id.Email != "" {
		id.FullName = nameFromEmail(id.Email)
	}
	return id
}

func nameFromDescriptions(sections []Section) string {
	descs := make([]string, 0, len(sections))
	for _, s := range sections {
		if s.Description != "" {
			descs = append(descs, s.Description)
		}
	}
	text := strings.Join(descs, " ")
	if text == "" {
		return ""
	}

	for _, p := range namePatterns {
		m := p.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		name := strings.TrimSpace(m[1])
		if hasStopPrefix(name) {
			continue
		}
		if first := strings.Fields(name); len(first) > 0 && len(first[0]) >= 3 {
			return name
		}
	}
	return ""
}

func hasStopPrefix(name string) bool {
	for _, w := range nameStopWords {
		if strings.HasPrefix(name, w) {
			return true
		}
	}
	return false
}

// nameFromEmail derives "Jane Doe" from jane.doe@ or jane_doe@ addresses.
func nameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if !strings.ContainsAny(local, "._") {
		return ""
	}
	parts := util.NameWords(email)
	if len(parts) < 2 || utf8.RuneCountInString(parts[0]) <= 1 {
		return ""
	}
	return util.TitleName(parts)
}
