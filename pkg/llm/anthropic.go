package llm

import (
	"context"
	"fmt"
)

// AnthropicConfig placeholder for anthropic integration configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string
}

// AnthropicClient is a stub implementation that can be expanded once the SDK
// is available.
type AnthropicClient struct {
	cfg AnthropicConfig
}

// NewAnthropicClient constructs a new stub client.
func NewAnthropicClient(cfg AnthropicConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	return &AnthropicClient{cfg: cfg}, nil
}

// ProviderName implements Client.
func (a *AnthropicClient) ProviderName() string { return "anthropic" }

// ModelName implements Client.
func (a *AnthropicClient) ModelName() string { return a.cfg.Model }

// Complete is not yet implemented for Anthropic models.
func (a *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("anthropic: %w", ErrProviderUnavailable)
}
