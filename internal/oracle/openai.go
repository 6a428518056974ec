package oracle

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIGenerator is the fallback backend for teams running on the
// OpenAI API. The client reads OPENAI_API_KEY from the environment.
type OpenAIGenerator struct {
	model string
}

func NewOpenAIGenerator(model string) *OpenAIGenerator {
	return &OpenAIGenerator{model: model}
}

func (g *OpenAIGenerator) Name() string { return "openai" }

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, c Constraints) (string, error) {
	client := openai.NewClient(os.Getenv("OPENAI_API_KEY"))

	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       g.model,
			MaxTokens:   int(c.maxTokens()),
			Temperature: float32(c.temperature()),
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: c.System},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			lastErr = fmt.Errorf("OpenAI API error (attempt %d/%d): %w", attempt, maxRetries, err)
			if attempt < maxRetries {
				if backoff, err = sleepBackoff(ctx, backoff); err != nil {
					return "", err
				}
			}
			continue
		}

		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			lastErr = fmt.Errorf("empty response from OpenAI (attempt %d/%d)", attempt, maxRetries)
			if attempt < maxRetries {
				if backoff, err = sleepBackoff(ctx, backoff); err != nil {
					return "", err
				}
			}
			continue
		}

		return resp.Choices[0].Message.Content, nil
	}

	return "", lastErr
}
