package scoring

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// VertexCompleter completes prompts with Gemini models on Vertex AI.
type VertexCompleter struct {
	client *genai.Client
	model  string
}

// NewVertexCompleter creates a completer in the given GCP project and location.
func NewVertexCompleter(ctx context.Context, projectID, location, model string) (*VertexCompleter, error) {
	if projectID == "" {
		return nil, errors.New("GCP project not set for Vertex AI")
	}
	if location == "" {
		location = "us-central1"
	}
	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}
	return &VertexCompleter{client: client, model: model}, nil
}

func (c *VertexCompleter) Name() string      { return "vertexai" }
func (c *VertexCompleter) ModelName() string { return c.model }

func (c *VertexCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	m := c.client.GenerativeModel(c.model)
	// Low temperature keeps scores consistent between runs.
	m.SetTemperature(0.2)
	m.SetTopP(0.95)
	m.SetMaxOutputTokens(2048)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	resp, err := m.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no response candidates returned")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func (c *VertexCompleter) Close() error {
	return c.client.Close()
}

var _ Completer = (*VertexCompleter)(nil)
