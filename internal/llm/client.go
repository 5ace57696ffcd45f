package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Client is the openai-go backed Chatter. Model name and the fixed sampling
// parameters are set at construction, not per call.
type Client struct {
	api         openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

func NewClient(baseURL, model string, maxTokens int64, temperature float64) *Client {
	return &Client{
		api: openai.NewClient(
			option.WithBaseURL(baseURL),
			// Ollama ignores the key but the client requires one.
			option.WithAPIKey("ollama"),
		),
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

func (c *Client) Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openai.ChatModel(c.model),
		MaxTokens:   openai.Int(c.maxTokens),
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty message content")
	}
	return content, nil
}

// Verify checks that the backend is reachable and serves the configured
// model. Called once at boot; the pipeline itself never retries connections.
func (c *Client) Verify(ctx context.Context) error {
	page, err := c.api.Models.List(ctx)
	if err != nil {
		return fmt.Errorf("list models: %w", err)
	}

	for _, m := range page.Data {
		if m.ID == c.model || m.ID == c.model+":latest" {
			return nil
		}
	}
	return fmt.Errorf("model %q not served by backend", c.model)
}
