package generation

import (
	"context"

	"oracle/internal/port"
)

// StubAnswer is returned by StubGenerator for every prompt.
const StubAnswer = "This is a test answer. No language model is available, so the retrieved sources below are listed without a generated summary."

// StubGenerator is the last-resort backend when no model server is reachable.
type StubGenerator struct{}

func (StubGenerator) Complete(ctx context.Context, prompt string, opts port.CompletionOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return StubAnswer, nil
}

func (StubGenerator) ModelName() string {
	return "stub"
}
