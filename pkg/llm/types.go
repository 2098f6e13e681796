package llm

import "context"

// Client is the capability the grading engine needs from a language-model
// backend: one prompt in, one completion out. Concrete providers are selected
// by configuration through New.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	ProviderName() string
	ModelName() string
}
