package port

import "context"

// Generator produces text from a prompt using a language model.
type Generator interface {
	// Complete generates a completion for the prompt.
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}

type CompletionOptions struct {
	MaxTokens   int
	Temperature float32
	Stop        []string
}
