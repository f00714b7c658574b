package enrich

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dtnitsch/essay-ingest/models"
)

const systemPrompt = "You classify essays. Answer with a single JSON object and nothing else."

// OpenAIClassifier classifies essays through a chat completion endpoint.
type OpenAIClassifier struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIClassifier creates a classifier. An empty baseURL uses the public API.
func NewOpenAIClassifier(apiKey, baseURL, model string, timeout time.Duration) *OpenAIClassifier {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}
	return &OpenAIClassifier{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

func (c *OpenAIClassifier) Name() string  { return "openai" }
func (c *OpenAIClassifier) Model() string { return c.model }

func (c *OpenAIClassifier) Classify(ctx context.Context, doc *models.Document) (*models.Enrichment, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: Prompt(doc)},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: completion has no choices", ErrMalformedResponse)
	}
	return ParseMetadata(resp.Choices[0].Message.Content)
}
