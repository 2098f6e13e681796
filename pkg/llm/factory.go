package llm

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects and configures a provider by name.
type Config struct {
	Provider        string
	Model           string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	MaxTokens       int
	Temperature     float32
	Timeout         time.Duration
	Logger          zerolog.Logger
}

type constructor func(Config) (Client, error)

var providers = map[string]constructor{
	"openai": func(cfg Config) (Client, error) {
		return NewOpenAIClient(OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
			Logger:      cfg.Logger,
		})
	},
	"anthropic": func(cfg Config) (Client, error) {
		return NewAnthropicClient(AnthropicConfig{
			APIKey: cfg.AnthropicAPIKey,
			Model:  cfg.Model,
		})
	},
}

// New constructs the client named by cfg.Provider.
func New(cfg Config) (Client, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Provider))
	build, ok := providers[name]
	if !ok {
		known := make([]string, 0, len(providers))
		for key := range providers {
			known = append(known, key)
		}
		sort.Strings(known)
		return nil, fmt.Errorf("unknown llm provider %q, available: %s", cfg.Provider, strings.Join(known, ", "))
	}

	return build(cfg)
}
