package intent

import (
	"context"
	"fmt"
)

// Provider is a minimal completion interface over an LLM backend.
type Provider interface {
	// Complete sends the request and returns the raw assistant text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Provider returns the backend name.
	Provider() string
}

// CompletionRequest contains the parameters for a completion call.
type CompletionRequest struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// AuthProfile carries credentials for one LLM backend.
type AuthProfile struct {
	ID       string `json:"id"`
	Provider string `json:"provider"` // "openai", "anthropic"
	APIKey   string `json:"api_key"`
	Model    string `json:"model,omitempty"`
}

// NewProvider creates a provider from an auth profile.
func NewProvider(profile AuthProfile) (Provider, error) {
	switch profile.Provider {
	case "openai":
		return NewOpenAIProvider(profile.APIKey), nil
	case "anthropic":
		return NewAnthropicProvider(profile.APIKey), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", profile.Provider)
	}
}
