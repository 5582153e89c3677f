package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleEvaluation = `{
	"Fulfillment with Non-Negotiable Criteria": {"score": "8/10", "description": "Jane Doe has five years of Go."},
	"Fulfillment with Negotiable Criteria": {"score": "6/10", "description": "Some Kubernetes."},
	"Continuity and Recency of Experience": {"score": "9/10", "description": "Currently employed."},
	"personal_info": {"full_name": "Jane Doe", "email": "jane@corp.io"}
}`

func TestParseEvaluation_Complete(t *testing.T) {
	resp, err := DecodeResponse([]byte(sampleEvaluation), sampleEvaluation)
	require.NoError(t, err)
	require.Len(t, resp.Sections, 3)
	assert.Equal(t, "Fulfillment with Non-Negotiable Criteria", resp.Sections[0].Title)

	eval := ParseEvaluation(resp)
	require.NotNil(t, eval.Score)
	// round(8*0.5 + 6*0.3 + 9*0.2) = round(7.6) = 8
	assert.Equal(t, 8.0, *eval.Score)
	assert.Equal(t, "Score: 8/10\nJane Doe has five years of Go.", eval.Breakdown[BreakdownNonNegotiable])
	assert.Equal(t, "Score: 6/10\nSome Kubernetes.", eval.Breakdown[BreakdownNegotiable])
	assert.Equal(t, "Score: 9/10\nCurrently employed.", eval.Breakdown[BreakdownContinuity])
	assert.Equal(t, Identity{FullName: "Jane Doe", Email: "jane@corp.io"}, eval.Identity)
	assert.Empty(t, eval.Flags)
}

func TestParseEvaluation_NegotiableDoesNotMatchNonNegotiable(t *testing.T) {
	resp := Response{Sections: []Section{
		{Title: "Non-Negotiable", Score: "4/10"},
		{Title: "Continuity", Score: "5/10"},
	}}
	eval := ParseEvaluation(resp)
	assert.Nil(t, eval.Score)
	assert.Equal(t, notEvaluated, eval.Breakdown[BreakdownNegotiable])
	assert.Equal(t, "Score: 4/10\n", eval.Breakdown[BreakdownNonNegotiable])
}

func TestParseEvaluation_AdditionalCriteriaFallback(t *testing.T) {
	resp := Response{Sections: []Section{
		{Title: "Non-Negotiable Criteria", Score: "10/10"},
		{Title: "Additional Criteria", Score: "5/10"},
		{Title: "Recency", Score: "0/10"},
	}}
	eval := ParseEvaluation(resp)
	require.NotNil(t, eval.Score)
	assert.Equal(t, 7.0, *eval.Score) // 5 + 1.5 + 0 = 6.5 rounds to 7
}

func TestParseEvaluation_UnparsableScore(t *testing.T) {
	resp := Response{Sections: []Section{
		{Title: "Non-Negotiable", Score: "n/a"},
		{Title: "Negotiable", Score: "5/10"},
		{Title: "Continuity", Score: "5/10"},
	}}
	assert.Nil(t, ParseEvaluation(resp).Score)
}

func TestDecodeResponse_NumericScoreAndJunk(t *testing.T) {
	body := `{"Non-Negotiable": {"score": 7, "description": "x"}, "note": "free text", "personal_info": null}`
	resp, err := DecodeResponse([]byte(body), body)
	require.NoError(t, err)
	require.Len(t, resp.Sections, 1)
	assert.Equal(t, "7", resp.Sections[0].Score)
}

func TestDecodeResponse_NotAnObject(t *testing.T) {
	_, err := DecodeResponse([]byte(`[1,2]`), "")
	assert.Error(t, err)
}

func TestExtractIdentity_Fallbacks(t *testing.T) {
	t.Run("email from raw text and name from email", func(t *testing.T) {
		resp := Response{Raw: `{"evaluation": {"x": "contact john.smith@mail.com"}}`}
		id := ParseEvaluation(resp).Identity
		assert.Equal(t, "john.smith@mail.com", id.Email)
		assert.Equal(t, "John Smith", id.FullName)
	})

	t.Run("name from description", func(t *testing.T) {
		resp := Response{Sections: []Section{
			{Title: "Non-Negotiable", Score: "5/10", Description: "Sarah Faisal holds a BSc."},
		}}
		assert.Equal(t, "Sarah Faisal", ParseEvaluation(resp).Identity.FullName)
	})

	t.Run("stop words rejected", func(t *testing.T) {
		resp := Response{Sections: []Section{
			{Title: "Non-Negotiable", Score: "5/10", Description: "The candidate has Go."},
		}}
		assert.Empty(t, ParseEvaluation(resp).Identity.FullName)
	})

	t.Run("plain local part yields no name", func(t *testing.T) {
		resp := Response{Raw: "jsmith@mail.com"}
		id := ParseEvaluation(resp).Identity
		assert.Equal(t, "jsmith@mail.com", id.Email)
		assert.Empty(t, id.FullName)
	})
}

func TestNameFromEmail(t *testing.T) {
	tests := map[string]string{
		"john.smith@corp.io": "John Smith",
		"ÉMILE_zola@corp.io": "Émile Zola",
		"j.smith@corp.io":    "",
		"é.zola@corp.io":     "",
		"jsmith@corp.io":     "",
	}
	for in, want := range tests {
		assert.Equal(t, want, nameFromEmail(in), in)
	}
}

func TestParseScore(t *testing.T) {
	v, ok := parseScore("7.5/10")
	assert.True(t, ok)
	assert.Equal(t, 7.5, v)

	_, ok = parseScore("")
	assert.False(t, ok)
}
