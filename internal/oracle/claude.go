package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

var claudeModels = map[string]string{
	"haiku":  "claude-haiku-4-5-20251001",
	"sonnet": "claude-sonnet-4-5-20250929",
}

// ClaudeGenerator talks to the Anthropic Messages API. The client
// reads ANTHROPIC_API_KEY from the environment.
type ClaudeGenerator struct {
	model string
}

func NewClaudeGenerator(model string) *ClaudeGenerator {
	return &ClaudeGenerator{model: model}
}

func (g *ClaudeGenerator) Name() string { return "claude" }

func (g *ClaudeGenerator) Generate(ctx context.Context, prompt string, c Constraints) (string, error) {
	client := anthropic.NewClient()

	modelID := claudeModels[g.model]
	if modelID == "" {
		modelID = claudeModels["haiku"]
	}

	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:       anthropic.Model(modelID),
			MaxTokens:   c.maxTokens(),
			Temperature: anthropic.Float(c.temperature()),
			System: []anthropic.TextBlockParam{
				{Text: c.System},
			},
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			lastErr = fmt.Errorf("Claude API error (attempt %d/%d): %w", attempt, maxRetries, err)
			if attempt < maxRetries {
				if backoff, err = sleepBackoff(ctx, backoff); err != nil {
					return "", err
				}
			}
			continue
		}

		text := extractClaudeText(message)
		if text == "" {
			lastErr = fmt.Errorf("empty response from Claude (attempt %d/%d)", attempt, maxRetries)
			if attempt < maxRetries {
				if backoff, err = sleepBackoff(ctx, backoff); err != nil {
					return "", err
				}
			}
			continue
		}

		return text, nil
	}

	return "", lastErr
}

func extractClaudeText(msg *anthropic.Message) string {
	var parts []string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}
	return strings.Join(parts, "")
}
