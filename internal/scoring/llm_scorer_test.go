package scoring

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"aicruit/internal/models"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	answer     string
	err        error
	gotSystem  string
	gotMessage string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.gotSystem, f.gotMessage = system, user
	return f.answer, f.err
}
func (f *fakeCompleter) Name() string      { return "fake" }
func (f *fakeCompleter) ModelName() string { return "test-model" }
func (f *fakeCompleter) Close() error      { return nil }

const sampleAnswer = `1. Fulfillment with Non-Negotiable Criteria: 8/10
   Strong Go background.
   Has led backend teams.

2. **Fulfillment with Negotiable Criteria**: 6/10
   Some cloud exposure.

3. Continuity and Recency of Experience: 9/10
   Continuous employment since 2018.`

const sampleResume = `Jane Doe jane.doe@corp.io +1 (555) 123-4567
Senior Backend Engineer
Experience: eight years building Go services and data pipelines.`

func writeResume(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLLMScorer_Evaluate(t *testing.T) {
	comp := &fakeCompleter{answer: sampleAnswer}
	s := NewLLMScorer(comp, NewResumeFetcher(time.Second, 1), "")

	eval, err := s.Evaluate(context.Background(), writeResume(t, sampleResume), models.EvaluationCriteria{
		NonNegotiable: []string{"Go"},
		Additional:    []string{"AWS"},
	})
	require.NoError(t, err)

	assert.Equal(t, DefaultEvaluationPrompt, comp.gotSystem)
	assert.Contains(t, comp.gotMessage, "Senior Backend Engineer")
	assert.Contains(t, comp.gotMessage, `"Negotiable Requirements"`)

	require.NotNil(t, eval.Score)
	assert.Equal(t, 8.0, *eval.Score)
	assert.Equal(t, "jane.doe@corp.io", eval.Identity.Email)
	assert.Equal(t, "Jane Doe", eval.Identity.FullName)
	assert.Equal(t, "Score: 6/10\nSome cloud exposure.", eval.Breakdown[BreakdownNegotiable])
	assert.Equal(t, "fake:test-model", s.Name())
}

func TestLLMScorer_Evaluate_CompleterError(t *testing.T) {
	comp := &fakeCompleter{err: errors.New("rate limited")}
	s := NewLLMScorer(comp, NewResumeFetcher(time.Second, 1), "custom prompt")

	_, err := s.Evaluate(context.Background(), writeResume(t, sampleResume), models.EvaluationCriteria{})
	assert.ErrorContains(t, err, "rate limited")
	assert.Equal(t, "custom prompt", comp.gotSystem)
}

func TestLLMScorer_Evaluate_UnreadableResume(t *testing.T) {
	s := NewLLMScorer(&fakeCompleter{}, NewResumeFetcher(time.Second, 1), "")
	_, err := s.Evaluate(context.Background(), writeResume(t, "too short"), models.EvaluationCriteria{})
	assert.ErrorIs(t, err, ErrUnreadableResume)
}

func TestParseNumberedSections_IgnoresProse(t *testing.T) {
	sections := ParseNumberedSections("Here is my evaluation.\n\n" + sampleAnswer)
	require.Len(t, sections, 3)
	assert.Equal(t, "Fulfillment with Negotiable Criteria", sections[1].Title)
	assert.Equal(t, "9/10", sections[2].Score)
}

func TestPersonalInfoFromText(t *testing.T) {
	pi := PersonalInfoFromText(sampleResume)
	assert.Equal(t, "Jane Doe", pi.FullName)
	assert.Equal(t, "jane.doe@corp.io", pi.Email)
}

type stubChatClient struct {
	resp openai.ChatCompletionResponse
	err  error
	req  openai.ChatCompletionRequest
}

func (s *stubChatClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.req = req
	return s.resp, s.err
}

func TestOpenAICompleter_Complete(t *testing.T) {
	stub := &stubChatClient{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "  answer \n"}}},
	}}
	c := &OpenAICompleter{client: stub, model: "o4-mini"}

	out, err := c.Complete(context.Background(), "sys", "usr")
	require.NoError(t, err)
	assert.Equal(t, "answer", out)
	require.Len(t, stub.req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, stub.req.Messages[0].Role)
	assert.Equal(t, "o4-mini", stub.req.Model)

	stub.resp = openai.ChatCompletionResponse{}
	_, err = c.Complete(context.Background(), "sys", "usr")
	assert.Error(t, err)
}

func TestNewOpenAICompleter_RequiresKey(t *testing.T) {
	_, err := NewOpenAICompleter("", "o4-mini")
	assert.Error(t, err)
}
