package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
)

// Completer generates a chat completion from a system and a user message.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Name() string
	ModelName() string
	Close() error
}

// chatCompletionClient is the part of *openai.Client the completer uses.
type chatCompletionClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAICompleter completes prompts with the OpenAI chat API.
type OpenAICompleter struct {
	client chatCompletionClient
	model  string
}

// NewOpenAICompleter creates a completer for model using apiKey.
func NewOpenAICompleter(apiKey, model string) (*OpenAICompleter, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key not provided")
	}
	return &OpenAICompleter{client: openai.NewClient(apiKey), model: model}, nil
}

func (c *OpenAICompleter) Name() string      { return "openai" }
func (c *OpenAICompleter) ModelName() string { return c.model }
func (c *OpenAICompleter) Close() error      { return nil }

func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	log.WithFields(log.Fields{
		"provider":      "openai",
		"model":         c.model,
		"input_tokens":  resp.Usage.PromptTokens,
		"output_tokens": resp.Usage.CompletionTokens,
	}).Debug("Completion usage")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var _ Completer = (*OpenAICompleter)(nil)
