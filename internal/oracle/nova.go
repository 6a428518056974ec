package oracle

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

var novaModels = map[string]string{
	"nova-lite": "us.amazon.nova-2-lite-v1:0",
}

// NovaGenerator runs generation through Bedrock Converse for
// deployments that keep everything inside AWS.
type NovaGenerator struct {
	model  string
	client *bedrockruntime.Client
}

func NewNovaGenerator(model string) (*NovaGenerator, error) {
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &NovaGenerator{
		model:  model,
		client: bedrockruntime.NewFromConfig(cfg),
	}, nil
}

func (g *NovaGenerator) Name() string { return "nova" }

func (g *NovaGenerator) Generate(ctx context.Context, prompt string, c Constraints) (string, error) {
	modelID := novaModels[g.model]
	if modelID == "" {
		modelID = novaModels["nova-lite"]
	}

	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		resp, err := g.client.Converse(ctx, &bedrockruntime.ConverseInput{
			ModelId: aws.String(modelID),
			System: []types.SystemContentBlock{
				&types.SystemContentBlockMemberText{Value: c.System},
			},
			Messages: []types.Message{
				{
					Role: types.ConversationRoleUser,
					Content: []types.ContentBlock{
						&types.ContentBlockMemberText{Value: prompt},
					},
				},
			},
			InferenceConfig: &types.InferenceConfiguration{
				MaxTokens:   aws.Int32(int32(c.maxTokens())),
				Temperature: aws.Float32(float32(c.temperature())),
			},
		})
		if err != nil {
			lastErr = fmt.Errorf("Bedrock Converse error (attempt %d/%d): %w", attempt, maxRetries, err)
			if attempt < maxRetries {
				if backoff, err = sleepBackoff(ctx, backoff); err != nil {
					return "", err
				}
			}
			continue
		}

		text := extractNovaText(resp)
		if text == "" {
			lastErr = fmt.Errorf("empty response from Bedrock (attempt %d/%d)", attempt, maxRetries)
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

func extractNovaText(resp *bedrockruntime.ConverseOutput) string {
	if resp.Output == nil {
		return ""
	}
	msg, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	for _, block := range msg.Value.Content {
		if tb, ok := block.(*types.ContentBlockMemberText); ok {
			return tb.Value
		}
	}
	return ""
}
