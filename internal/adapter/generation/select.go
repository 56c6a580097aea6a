package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"oracle/internal/port"
)

// ErrNoBackend is returned when every candidate backend failed to start.
var ErrNoBackend = errors.New("no generation backend available")

// Candidate is a named, lazily constructed generation backend.
type Candidate struct {
	Name string
	Init func(ctx context.Context) (port.Generator, error)
}

// Select initializes candidates in order and returns the first that succeeds.
// The choice is made once; callers keep the returned generator for the
// lifetime of the process.
func Select(ctx context.Context, candidates []Candidate, logger *slog.Logger) (port.Generator, string, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var errs []error
	for _, c := range candidates {
		gen, err := c.Init(ctx)
		if err != nil {
			logger.Warn("generation backend unavailable", "backend", c.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
			continue
		}
		logger.Info("generation backend selected", "backend", c.Name, "model", gen.ModelName())
		return gen, c.Name, nil
	}

	return nil, "", fmt.Errorf("%w: %w", ErrNoBackend, errors.Join(errs...))
}
