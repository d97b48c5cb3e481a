package providers

import (
	"context"
	"fmt"
)

// Request contains the prompt material sent to a model for one call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// Response contains the raw text response from a model.
type Response struct {
	Content    string
	TokensUsed int
}

// Reviewer is the model backend abstraction.
type Reviewer interface {
	Review(ctx context.Context, req Request) (Response, error)
	Name() string
}

// New creates a provider by name. Unknown names are a configuration
// error and surface before any network activity.
func New(provider, model string) (Reviewer, error) {
	switch provider {
	case "openai":
		return NewOpenAI(model)
	case "anthropic":
		return NewAnthropic(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
