// Package oracle abstracts the text-generation backends. Planning and
// dialogue talk to a Generator and never to a vendor SDK directly.
package oracle

import (
	"context"
	"fmt"
	"time"
)

const (
	defaultTemperature = 0.7
	maxRetries         = 3
	initialBackoff     = 1 * time.Second
	backoffMult        = 2
)

// Constraints shape a single generation call.
type Constraints struct {
	System      string
	MaxTokens   int64
	Temperature float64
}

func (c Constraints) temperature() float64 {
	if c.Temperature == 0 {
		return defaultTemperature
	}
	return c.Temperature
}

func (c Constraints) maxTokens() int64 {
	if c.MaxTokens == 0 {
		return 8192
	}
	return c.MaxTokens
}

// Generator produces raw text for a prompt. Implementations retry
// transient failures internally and return the last error once the
// budget is spent.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string, c Constraints) (string, error)
}

// New returns the generator for a model alias. Claude aliases are the
// default; "gpt-*" routes to OpenAI and "nova-*" to Bedrock.
func New(model string) (Generator, error) {
	switch {
	case model == "" || claudeModels[model] != "":
		return NewClaudeGenerator(model), nil
	case len(model) >= 4 && model[:4] == "gpt-":
		return NewOpenAIGenerator(model), nil
	case novaModels[model] != "":
		return NewNovaGenerator(model)
	}
	return nil, fmt.Errorf("oracle: unknown model %q", model)
}

// sleepBackoff waits for the current backoff or the context,
// whichever ends first, and returns the next backoff.
func sleepBackoff(ctx context.Context, backoff time.Duration) (time.Duration, error) {
	select {
	case <-ctx.Done():
		return backoff, ctx.Err()
	case <-time.After(backoff):
	}
	return backoff * time.Duration(backoffMult), nil
}
